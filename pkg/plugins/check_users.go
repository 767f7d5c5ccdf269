package plugins

import "github.com/consol-monitoring/checkplugins/pkg/check_users"

func init() {
	register(Plugin{
		Name:        "check_users",
		Description: "Checks the number of users currently logged in on the local system.",
		Example:     "check_users -w 5 -c 10",
		Check:       check_users.Check,
	})
}
