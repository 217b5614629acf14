package enums

import "fmt"

// WorkerRole maps to the role column on workers.
type WorkerRole string

const (
	WorkerRoleWorker     WorkerRole = "worker"
	WorkerRoleAdmin      WorkerRole = "admin"
	WorkerRoleClient     WorkerRole = "client"
	WorkerRoleSuperAdmin WorkerRole = "super_admin"
)

var validWorkerRoles = []WorkerRole{
	WorkerRoleWorker,
	WorkerRoleAdmin,
	WorkerRoleClient,
	WorkerRoleSuperAdmin,
}

// IsValid reports whether the value matches the canonical role enum.
func (r WorkerRole) IsValid() bool {
	for _, candidate := range validWorkerRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseWorkerRole converts raw input into WorkerRole.
func ParseWorkerRole(value string) (WorkerRole, error) {
	for _, candidate := range validWorkerRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid worker role %q", value)
}
