package check_ldap

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/consol-monitoring/checkplugins/pkg/check"
	"github.com/consol-monitoring/checkplugins/pkg/logger"
	"github.com/consol-monitoring/checkplugins/pkg/threshold"
	"github.com/go-ldap/ldap/v3"
	"github.com/jessevdk/go-flags"
)

const (
	defaultPort = 389
	ldapsPort   = 636
)

var log = logger.Log

type ldapOpts struct {
	check.CommonOpts
	Host     string `short:"H" long:"host" required:"true" description:"Host name or address of the ldap server"`
	Port     int    `short:"p" long:"port" default:"389" description:"Port number"`
	Base     string `short:"b" long:"base" required:"true" description:"ldap base (eg. ou=my unit, o=my org, c=at)"`
	Attr     string `short:"a" long:"attr" default:"(objectclass=*)" description:"ldap attribute to search"`
	Bind     string `short:"D" long:"bind" description:"ldap bind DN (if required)"`
	Pass     string `short:"P" long:"pass" description:"ldap password (if required)"`
	Ver2     bool   `short:"2" long:"ver2" description:"use ldap protocol version 2"`
	Ver3     bool   `short:"3" long:"ver3" description:"use ldap protocol version 3 (default)"`
	StartTLS bool   `short:"T" long:"starttls" description:"use starttls mechanism introduced in protocol version 3"`
	SSL      bool   `short:"S" long:"ssl" description:"use ldaps (ldap v2 ssl method), sets port to 636 unless set otherwise"`
	Insecure bool   `short:"k" long:"insecure" description:"do not verify the server certificate"`
	Warning  string `short:"w" long:"warning" description:"Response time range in seconds which results in warning status"`
	Critical string `short:"c" long:"critical" description:"Response time range in seconds which results in critical status"`

	thresholds *threshold.Thresholds[float64]
}

// Check runs check_ldap.
func Check(ctx context.Context, output io.Writer, args []string) int {
	return runCheck(ctx, output, "check_ldap", args)
}

// CheckLDAPS runs check_ldaps which uses starttls unless --ssl is given.
func CheckLDAPS(ctx context.Context, output io.Writer, args []string) int {
	return runCheck(ctx, output, "check_ldaps", args)
}

func runCheck(ctx context.Context, output io.Writer, name string, args []string) int {
	opts, err := parseArgs(name, args)
	if err != nil {
		return check.UsageError(output, err)
	}
	opts.Setup()

	res := check.RunWithTimeout(ctx, opts.TimeoutDuration(), opts.service(), opts.run)

	return res.Write(output)
}

func parseArgs(name string, args []string) (*ldapOpts, error) {
	opts := &ldapOpts{}
	err := check.ParseArgs(name, opts, args, flags.HelpFlag|flags.PassDoubleDash)
	if err != nil {
		return nil, err
	}

	if opts.StartTLS && opts.SSL {
		return nil, fmt.Errorf("--ssl and --starttls cannot be combined")
	}
	if opts.Ver2 {
		if opts.StartTLS {
			return nil, fmt.Errorf("starttls requires ldap protocol version 3")
		}

		return nil, fmt.Errorf("ldap protocol version 2 is not supported")
	}
	if name == "check_ldaps" && !opts.SSL {
		opts.StartTLS = true
	}
	if opts.SSL && opts.Port == defaultPort {
		opts.Port = ldapsPort
	}

	opts.thresholds, err = threshold.NewThresholds(opts.Warning, opts.Critical, threshold.DefaultLower(0.0))
	if err != nil {
		return nil, err
	}

	return opts, nil
}

// service returns the label used in the status line.
func (opts *ldapOpts) service() string {
	switch {
	case opts.Port == ldapsPort || opts.SSL:
		return "LDAPS"
	case opts.StartTLS:
		return "LDAP-TLS"
	default:
		return "LDAP"
	}
}

func (opts *ldapOpts) tlsConfig() *tls.Config {
	return &tls.Config{
		ServerName:         opts.Host,
		InsecureSkipVerify: opts.Insecure, //nolint:gosec // explicitly requested by --insecure
		MinVersion:         tls.VersionTLS12,
	}
}

func (opts *ldapOpts) run(ctx context.Context) *check.Result {
	service := opts.service()
	start := time.Now()

	if err := opts.query(ctx); err != nil {
		logger.LogDebug(err)

		return check.Criticalf(service, "%s", err.Error())
	}

	return buildResult(service, time.Since(start).Seconds(), opts.thresholds)
}

// query connects, binds and searches the base dn.
func (opts *ldapOpts) query(ctx context.Context) error {
	scheme := "ldap"
	if service := opts.service(); service == "LDAPS" {
		scheme = "ldaps"
	}
	address := fmt.Sprintf("%s://%s", scheme, net.JoinHostPort(opts.Host, strconv.Itoa(opts.Port)))
	log.Infof("connecting to %s", address)

	dialer := &net.Dialer{Timeout: opts.TimeoutDuration()}
	if deadline, ok := ctx.Deadline(); ok {
		dialer.Deadline = deadline
	}
	conn, err := ldap.DialURL(address, ldap.DialWithDialer(dialer), ldap.DialWithTLSConfig(opts.tlsConfig()))
	if err != nil {
		return fmt.Errorf("could not connect to the server at port %d: %s", opts.Port, err.Error())
	}
	defer conn.Close()
	conn.SetTimeout(opts.TimeoutDuration())

	if opts.StartTLS && opts.service() == "LDAP-TLS" {
		if err = conn.StartTLS(opts.tlsConfig()); err != nil {
			return fmt.Errorf("could not init startTLS at port %d: %s", opts.Port, err.Error())
		}
	}

	if opts.Pass == "" {
		err = conn.UnauthenticatedBind(opts.Bind)
	} else {
		err = conn.Bind(opts.Bind, opts.Pass)
	}
	if err != nil {
		return fmt.Errorf("could not bind to the ldap-server: %s", err.Error())
	}

	req := ldap.NewSearchRequest(
		opts.Base,
		ldap.ScopeBaseObject, ldap.NeverDerefAliases, 0, int(opts.Timeout), false,
		opts.Attr,
		[]string{},
		nil,
	)
	result, err := conn.Search(req)
	if err != nil {
		return fmt.Errorf("could not search/find objectclasses in %s: %s", opts.Base, err.Error())
	}
	log.Debugf("search returned %d entries", len(result.Entries))

	return nil
}

func buildResult(service string, elapsed float64, thresholds *threshold.Thresholds[float64]) *check.Result {
	res := check.NewResult(service)
	res.Set(thresholds.Get(elapsed), "%.3f seconds response time", elapsed)
	res.Metrics = append(res.Metrics, &check.Metric{
		Name:     "time",
		Unit:     "s",
		Value:    elapsed,
		Warning:  thresholds.Warning,
		Critical: thresholds.Critical,
		Min:      0.0,
	})

	return res
}
