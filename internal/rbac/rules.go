package rbac

const (
	RoleEvaluator = "evaluator"
	RoleViewer    = "viewer"
	RoleAdmin     = "admin"
)

const (
	PermRecordsWrite  = "records:write"
	PermRecordsView   = "records:view"
	PermRecordsDelete = "records:delete"
	PermRecordsReset  = "records:reset"
	PermReportsView   = "reports:view"
	PermSheetImport   = "sheet:import"
	PermSheetExport   = "sheet:export"
	PermUsersBulk     = "users:bulk_upsert"
	PermUsersList     = "users:list"
)

var AllPermissions = []string{
	PermRecordsWrite,
	PermRecordsView,
	PermRecordsDelete,
	PermRecordsReset,
	PermReportsView,
	PermSheetImport,
	PermSheetExport,
	PermUsersBulk,
	PermUsersList,
}

// RolePermissions is the default policy.
var RolePermissions = Policy{
	RoleEvaluator: {
		PermRecordsWrite,
		PermRecordsView,
		PermReportsView,
		PermSheetExport,
	},
	RoleViewer: {
		PermRecordsView,
		PermReportsView,
	},
	RoleAdmin: {
		"*", // everything
	},
}

func ValidRole(role string) bool {
	_, ok := RolePermissions[role]
	return ok
}
