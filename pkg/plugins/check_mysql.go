package plugins

import (
	"github.com/consol-monitoring/checkplugins/pkg/check_mysql"
	"github.com/consol-monitoring/checkplugins/pkg/check_mysql_query"
)

func init() {
	register(Plugin{
		Name:        "check_mysql",
		Description: "Tests connections to a MySQL server and optionally the replication status.",
		Example:     "check_mysql -H db.example.com -u nagios -p secret -S -w 60 -c 300",
		Check:       check_mysql.Check,
	})

	register(Plugin{
		Name:        "check_mysql_query",
		Description: "Checks the numeric result of a MySQL query against threshold levels.",
		Example:     "check_mysql_query -H db.example.com -d app -q 'SELECT count(*) FROM jobs' -w 10 -c 20",
		Check:       check_mysql_query.Check,
	})
}
