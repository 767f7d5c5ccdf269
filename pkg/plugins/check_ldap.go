package plugins

import "github.com/consol-monitoring/checkplugins/pkg/check_ldap"

func init() {
	register(Plugin{
		Name:        "check_ldap",
		Description: "Tests LDAP connections on the specified host.",
		Example:     "check_ldap -H ldap.example.com -b dc=example,dc=com -3 -T",
		Check:       check_ldap.Check,
	})

	register(Plugin{
		Name:        "check_ldaps",
		Description: "Tests LDAP connections using starttls or ssl on the specified host.",
		Example:     "check_ldaps -H ldap.example.com -b dc=example,dc=com -S",
		Check:       check_ldap.CheckLDAPS,
	})
}
