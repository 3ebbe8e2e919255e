package classifier

import "strings"

// SystemInstruction pins the model to a bare numeric verdict.
const SystemInstruction = "你是一個專門判斷文字廣告的廣告識別專家。禁止輸出或描述任何思考、推理、分析或中間過程，只需給出最終判斷分數。"

const userPromptTemplate = `角色：你是 Telegram 文本廣告識別器。
任務：對輸入文本是否為推廣/廣告進行打分，輸出 0–10 的整數信心指數（10=幾乎確定是廣告，0=幾乎確定不是）。
只輸出數字，不得輸出任何其他文字或符號。

定義（正類）：「以推廣商品/服務/群組為目的」且至少包含以下強指標之一：
	•	聯絡/跳轉：@用戶名、VX/微信/WeChat/qq/q/企鹅、tg.me / t.me / http(s)://、「私聊/加我/進群/客服/報名」。
	•	交易資訊：明確價格/套餐/折扣（如「398 一箱」「799 暢飲」「日結」）、收/出/代/承兌/走量/引流/刷粉/上號/解封/代充。
	•	行業場景：KTV/酒局/成人服務、灰/黑產（如「USDT 承兌」「車隊」「專群」「漏洞資源」「色/菠菜」等）。

常見高風險模式（若出現，通常 ≥7）：
	•	海外社交賬號批發、自助下單、代註冊/批量開號、出售 Session/JSON 憑證。
	•	防封/防紅工具或服務（如「谷歌防紅」「蘋果/微軟全系支持」）搭配聯絡方式或宣傳口號。
	•	純宣傳語 + @聯絡方式（例：「🌍海外社交賬號 · 批發銷售 · 自助下單 @gn_KC」）視為推廣。

非廣告（負類）示例：中立討論、抱怨/吐槽、轉述他人觀點、技術提示、無推銷動機的資訊分享、玩笑或口頭禪。

打分規則（降誤殺）：
	•	9–10：同時出現「明確推銷/招攬」+「聯絡方式或鏈接」或「明確價格/套餐」，且語氣是招徠/號召行為。
	•	7–8：有明顯推廣意圖（如 KTV 套餐、承兌、專群合作等），但聯絡/價格缺一；或灰產術語很強烈。
	•	4–6：語義可疑但缺乏決定性信號（只有品牌名/性能描述/個人感受，未出現聯絡/價格/招攬）。傾向保守取低值以減少誤殺。
	•	0–3：明顯非廣告：資訊分享、個人評價、玩笑話、抱怨、無招攬/無聯絡/無價格。

判斷原則（先決條件）：
	•	若沒有「聯絡方式/鏈接/價格/招攬動詞」四類信號中的任一，通常 ≤3。
	•	要 ≥7，需滿足：
	•	至少兩項中等信號（如行業場景 + 招攬動詞 / 價格）；或
	•	一項特強信號（如「@聯絡 + 價格/套餐」「代×× + 私聊/加」）。

輸出格式：只輸出一個 0–10 的整數，不加空格、不加標點、不加文字。
禁止輸出任何思考、推理、分析或理由。

現在評分以下文本：
{{content}}`

// BuildUserPrompt substitutes the message text into the scoring prompt.
func BuildUserPrompt(messageText string) string {
	return strings.Replace(userPromptTemplate, "{{content}}", messageText, 1)
}
