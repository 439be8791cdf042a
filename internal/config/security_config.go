// config/security_config.go
package config

type SecurityLevel int

const (
	SecurityPublic SecurityLevel = iota // No authentication
	SecurityAccess                      // Access token required
)

const fleetService = "/fleetrent.v1.FleetService/"

// EndpointSecurityConfig maps methods to their required security level.
// Anything not listed needs an access token.
var EndpointSecurityConfig = map[string]SecurityLevel{
	// Health - Public
	"/grpc.health.v1.Health/Check": SecurityPublic,
	"/grpc.health.v1.Health/Watch": SecurityPublic,
	"/grpc.health.v1.Health/List":  SecurityPublic,

	// FleetService - Public
	fleetService + "GetPermissionMatrix": SecurityPublic,

	// FleetService - Vehicles
	fleetService + "CreateVehicle":       SecurityAccess,
	fleetService + "UpdateVehicle":       SecurityAccess,
	fleetService + "GetVehicle":          SecurityAccess,
	fleetService + "ListVehicles":        SecurityAccess,
	fleetService + "DeleteVehicle":       SecurityAccess,
	fleetService + "ChangeVehicleStatus": SecurityAccess,

	// FleetService - Clients
	fleetService + "CreateClient": SecurityAccess,
	fleetService + "GetClient":    SecurityAccess,
	fleetService + "ListClients":  SecurityAccess,

	// FleetService - Contracts and inspections
	fleetService + "CreateContract":     SecurityAccess,
	fleetService + "ApproveContract":    SecurityAccess,
	fleetService + "ActivateContract":   SecurityAccess,
	fleetService + "ValidateReturn":     SecurityAccess,
	fleetService + "CancelContract":     SecurityAccess,
	fleetService + "GetContract":        SecurityAccess,
	fleetService + "ListContracts":      SecurityAccess,
	fleetService + "RecordInspection":   SecurityAccess,
	fleetService + "FinalizeInspection": SecurityAccess,
	fleetService + "ListInspections":    SecurityAccess,

	// FleetService - Maintenance
	fleetService + "OpenMaintenance":  SecurityAccess,
	fleetService + "StartMaintenance": SecurityAccess,
	fleetService + "CloseMaintenance": SecurityAccess,
	fleetService + "ListMaintenance":  SecurityAccess,

	// FleetService - Billing and audit
	fleetService + "RecordPayment":       SecurityAccess,
	fleetService + "ChangeInvoiceStatus": SecurityAccess,
	fleetService + "GetInvoice":          SecurityAccess,
	fleetService + "ListAuditLogs":       SecurityAccess,
}

// GetSecurityLevel returns the security level for a given method
func GetSecurityLevel(method string) SecurityLevel {
	if level, exists := EndpointSecurityConfig[method]; exists {
		return level
	}
	// Default to highest security for unknown endpoints
	return SecurityAccess
}
