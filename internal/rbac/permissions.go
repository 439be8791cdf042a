// Package rbac is the static permission model: a flat (role, resource, action)
// table plus named capabilities that are not plain CRUD. Every triple is
// listed explicitly; there is no role inheritance.
package rbac

import (
	"sort"

	"fleetrent-backend/internal/domain"
)

type Resource string

const (
	ResourceVehicles    Resource = "vehicles"
	ResourceClients     Resource = "clients"
	ResourceContracts   Resource = "contracts"
	ResourceInspections Resource = "inspections"
	ResourceInvoices    Resource = "invoices"
	ResourcePayments    Resource = "payments"
	ResourceMaintenance Resource = "maintenance"
	ResourceUsers       Resource = "users"
	ResourceSettings    Resource = "settings"
	ResourceAuditLogs   Resource = "audit_logs"
)

type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

type Capability string

const (
	CapApproveContracts Capability = "approve_contracts"
	CapCloseAnyContract Capability = "close_any_contract"
	CapViewAllUsersData Capability = "view_all_users_data"
	CapManageSettings   Capability = "manage_settings"
)

var (
	AllResources = []Resource{
		ResourceVehicles, ResourceClients, ResourceContracts, ResourceInspections,
		ResourceInvoices, ResourcePayments, ResourceMaintenance, ResourceUsers,
		ResourceSettings, ResourceAuditLogs,
	}
	AllActions      = []Action{ActionRead, ActionCreate, ActionUpdate, ActionDelete}
	AllCapabilities = []Capability{CapApproveContracts, CapCloseAnyContract, CapViewAllUsersData, CapManageSettings}
	AllRoles        = []domain.UserRole{domain.UserRoleAdmin, domain.UserRoleAgent, domain.UserRoleViewer}
)

type actionSet map[Action]bool

var (
	crud     = actionSet{ActionRead: true, ActionCreate: true, ActionUpdate: true, ActionDelete: true}
	readOnly = actionSet{ActionRead: true}
	noDelete = actionSet{ActionRead: true, ActionCreate: true, ActionUpdate: true}
)

// RolePermissions must not be mutated at runtime.
var RolePermissions = map[domain.UserRole]map[Resource]actionSet{
	domain.UserRoleAdmin: {
		ResourceVehicles:    crud,
		ResourceClients:     crud,
		ResourceContracts:   crud,
		ResourceInspections: crud,
		ResourceInvoices:    crud,
		ResourcePayments:    noDelete,
		ResourceMaintenance: crud,
		ResourceUsers:       crud,
		ResourceSettings:    actionSet{ActionRead: true, ActionUpdate: true},
		ResourceAuditLogs:   readOnly,
	},
	domain.UserRoleAgent: {
		ResourceVehicles:    noDelete,
		ResourceClients:     noDelete,
		ResourceContracts:   noDelete,
		ResourceInspections: noDelete,
		ResourceInvoices:    actionSet{ActionRead: true, ActionUpdate: true},
		ResourcePayments:    actionSet{ActionRead: true, ActionCreate: true},
		ResourceMaintenance: noDelete,
		ResourceUsers:       readOnly,
		ResourceSettings:    readOnly,
	},
	domain.UserRoleViewer: {
		ResourceVehicles:    readOnly,
		ResourceClients:     readOnly,
		ResourceContracts:   readOnly,
		ResourceInspections: readOnly,
		ResourceInvoices:    readOnly,
		ResourcePayments:    readOnly,
		ResourceMaintenance: readOnly,
	},
}

var SpecialPermissions = map[domain.UserRole]map[Capability]bool{
	domain.UserRoleAdmin: {
		CapApproveContracts: true,
		CapCloseAnyContract: true,
		CapViewAllUsersData: true,
		CapManageSettings:   true,
	},
	domain.UserRoleAgent: {
		CapApproveContracts: true,
	},
	domain.UserRoleViewer: {},
}

// HasPermission is defined for every input; unknown roles, resources and
// actions are denied.
func HasPermission(role domain.UserRole, resource Resource, action Action) bool {
	return RolePermissions[role][resource][action]
}

func HasSpecialPermission(role domain.UserRole, capability Capability) bool {
	return SpecialPermissions[role][capability]
}

type Grant struct {
	Role     domain.UserRole `json:"role"`
	Resource Resource        `json:"resource"`
	Actions  []Action        `json:"actions"`
}

// Matrix lists the granted actions of every (role, resource) pair in a
// stable order. Pairs with no grant are included with an empty action list.
func Matrix() []Grant {
	grants := make([]Grant, 0, len(AllRoles)*len(AllResources))
	for _, role := range AllRoles {
		for _, res := range AllResources {
			g := Grant{Role: role, Resource: res, Actions: []Action{}}
			for _, act := range AllActions {
				if HasPermission(role, res, act) {
					g.Actions = append(g.Actions, act)
				}
			}
			grants = append(grants, g)
		}
	}
	return grants
}

// Capabilities returns the sorted capabilities granted to role.
func Capabilities(role domain.UserRole) []Capability {
	caps := []Capability{}
	for c, ok := range SpecialPermissions[role] {
		if ok {
			caps = append(caps, c)
		}
	}
	sort.Slice(caps, func(i, j int) bool { return caps[i] < caps[j] })
	return caps
}
