package domain

// Capability is a fine-grained named permission, distinct from the coarse role.
type Capability string

const (
	CapUserCreate  Capability = "user:create"
	CapUserRead    Capability = "user:read"
	CapUserUpdate  Capability = "user:update"
	CapUserDelete  Capability = "user:delete"
	CapUserApprove Capability = "user:approve"

	CapSystemConfig Capability = "system:config"
	CapSystemLogs   Capability = "system:logs"
	CapSystemBackup Capability = "system:backup"

	CapOperationCreate     Capability = "operation:create"
	CapOperationManage     Capability = "operation:manage"
	CapOperationCoordinate Capability = "operation:coordinate"

	CapReportViewAll Capability = "report:view_all"
	CapReportViewOwn Capability = "report:view_own"
	CapReportExport  Capability = "report:export"

	CapAlertCreate    Capability = "alert:create"
	CapAlertBroadcast Capability = "alert:broadcast"
	CapAlertManage    Capability = "alert:manage"

	CapDataExport Capability = "data:export"
	CapDataImport Capability = "data:import"
	CapDataDelete Capability = "data:delete"

	CapMeasureRequest Capability = "measure:request"
)

// allCapabilities is the full capability universe, granted to master.
var allCapabilities = []Capability{
	CapUserCreate, CapUserRead, CapUserUpdate, CapUserDelete, CapUserApprove,
	CapSystemConfig, CapSystemLogs, CapSystemBackup,
	CapOperationCreate, CapOperationManage, CapOperationCoordinate,
	CapReportViewAll, CapReportViewOwn, CapReportExport,
	CapAlertCreate, CapAlertBroadcast, CapAlertManage,
	CapDataExport, CapDataImport, CapDataDelete,
	CapMeasureRequest,
}

// rolePermissions maps each role to its capability set. Master holds every
// capability; admin holds everything except the master-reserved subset
// (system backup, destructive data ops); agents hold operational
// capabilities only; citizens are limited to self-scoped ones.
var rolePermissions = map[Role]map[Capability]struct{}{
	RoleMaster: capSet(allCapabilities...),
	RoleAdmin: capSet(
		CapUserCreate, CapUserRead, CapUserUpdate, CapUserDelete, CapUserApprove,
		CapSystemConfig, CapSystemLogs,
		CapOperationCreate, CapOperationManage, CapOperationCoordinate,
		CapReportViewAll, CapReportExport,
		CapAlertCreate, CapAlertBroadcast, CapAlertManage,
		CapDataExport, CapDataImport,
	),
	RoleAgent: capSet(
		CapUserRead,
		CapOperationCreate, CapOperationManage,
		CapReportViewOwn, CapReportViewAll,
		CapAlertCreate,
	),
	RoleCitizen: capSet(
		CapReportViewOwn,
		CapMeasureRequest,
	),
}

// roleRank orders roles for coarse hierarchy checks. Unknown roles rank 0.
var roleRank = map[Role]int{
	RoleMaster:  4,
	RoleAdmin:   3,
	RoleAgent:   2,
	RoleCitizen: 1,
}

func capSet(caps ...Capability) map[Capability]struct{} {
	set := make(map[Capability]struct{}, len(caps))
	for _, c := range caps {
		set[c] = struct{}{}
	}
	return set
}

// HasCapability reports whether the role is granted the capability.
func HasCapability(role Role, c Capability) bool {
	_, ok := rolePermissions[role][c]
	return ok
}

// HasAnyCapability reports whether the role holds at least one of the
// capabilities.
func HasAnyCapability(role Role, caps ...Capability) bool {
	for _, c := range caps {
		if HasCapability(role, c) {
			return true
		}
	}
	return false
}

// HasAllCapabilities reports whether the role holds every capability.
func HasAllCapabilities(role Role, caps ...Capability) bool {
	for _, c := range caps {
		if !HasCapability(role, c) {
			return false
		}
	}
	return true
}

// RolePermissions returns the role's capabilities as a slice, for callers
// that render or serialize the grant set. Unknown roles get an empty slice.
func RolePermissions(role Role) []Capability {
	set := rolePermissions[role]
	caps := make([]Capability, 0, len(set))
	for _, c := range allCapabilities {
		if _, ok := set[c]; ok {
			caps = append(caps, c)
		}
	}
	return caps
}

// RoleAtLeast reports whether role ranks at or above floor in the hierarchy
// master > admin > agent > citizen. Unknown roles rank 0.
func RoleAtLeast(role, floor Role) bool {
	return roleRank[role] >= roleRank[floor]
}
