package instance

import "os"

// GetID returns the app instance identifier or a default value.
func GetID() string {
	if id := os.Getenv("FS_INSTANCE_ID"); id != "" {
		return id
	}
	return "app-0"
}
