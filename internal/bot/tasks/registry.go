package tasks

// NewTaskRegistry builds the map of schedulable tasks keyed by the names
// used in the scheduler configuration.
func NewTaskRegistry(deps TaskDeps) map[string]ScheduledTaskFunc {
	return map[string]ScheduledTaskFunc{
		"sql_maintenance": NewSQLMaintenanceTask(deps),
	}
}
