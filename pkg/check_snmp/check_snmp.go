package check_snmp

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/consol-monitoring/checkplugins/pkg/check"
	"github.com/consol-monitoring/checkplugins/pkg/logger"
	"github.com/consol-monitoring/checkplugins/pkg/matcher"
	"github.com/consol-monitoring/checkplugins/pkg/utils"
	"github.com/gosnmp/gosnmp"
	"github.com/jessevdk/go-flags"
)

const defaultLabel = "SNMP"

var log = logger.Log

type snmpOpts struct {
	check.CommonOpts
	Hostname        string   `short:"H" long:"hostname" required:"true" description:"Host name or address of the snmp agent"`
	Port            uint16   `short:"p" long:"port" default:"161" description:"Port number"`
	Community       string   `short:"C" long:"community" default:"public" description:"Optional community string for SNMP communication"`
	Protocol        string   `short:"P" long:"protocol" default:"1" choice:"1" choice:"2c" choice:"3" description:"SNMP protocol version"`
	SecLevel        string   `short:"L" long:"seclevel" default:"noAuthNoPriv" choice:"noAuthNoPriv" choice:"authNoPriv" choice:"authPriv" description:"SNMPv3 securityLevel"`
	SecName         string   `short:"U" long:"secname" description:"SNMPv3 username"`
	AuthProto       string   `short:"a" long:"authproto" default:"MD5" choice:"MD5" choice:"SHA" description:"SNMPv3 auth proto"`
	AuthPasswd      string   `short:"A" long:"authpasswd" description:"SNMPv3 authentication password"`
	PrivPasswd      string   `short:"X" long:"privpasswd" description:"SNMPv3 privacy password (DES)"`
	OIDs            []string `short:"o" long:"oid" description:"Object identifier(s) whose value you wish to query, comma or space separated (can be repeated)"`
	WarnPresent     []string `long:"warn-present" description:"Object identifier which results in a warning if it is present (can be repeated)"`
	CritPresent     []string `long:"crit-present" description:"Object identifier which results in a critical if it is present (can be repeated)"`
	Next            bool     `short:"n" long:"next" description:"Use getnext instead of get"`
	Retries         int      `short:"e" long:"retries" default:"5" description:"Number of retries to be used in the requests"`
	Warning         string   `short:"w" long:"warning" description:"Warning range list, one range per object identifier, comma separated"`
	Critical        string   `short:"c" long:"critical" description:"Critical range list, one range per object identifier, comma separated"`
	Strings         []string `short:"s" long:"string" description:"Return OK state (for that OID) if STRING is an exact match"`
	Ereg            []string `short:"r" long:"ereg" description:"Return OK state (for that OID) if extended regular expression REGEX matches"`
	Eregi           []string `short:"R" long:"eregi" description:"Return OK state (for that OID) if case-insensitive extended REGEX matches"`
	Labels          []string `short:"l" long:"label" description:"Prefix label for output from plugin, comma separated list for multiple OIDs"`
	Units           []string `short:"u" long:"units" description:"Units label(s) for output data (e.g., 'sec.'), comma separated list for multiple OIDs"`
	OutputDelimiter string   `short:"D" long:"output-delimiter" default:" " description:"Separates output on multiple OID requests"`

	objects []string
	sets    []*matcher.PredicateSet[float64]
}

func Check(ctx context.Context, output io.Writer, args []string) int {
	opts, err := parseArgs(args)
	if err != nil {
		return check.UsageError(output, err)
	}
	opts.Setup()

	res := check.RunWithTimeout(ctx, opts.TimeoutDuration(), opts.label(), opts.run)

	return res.Write(output)
}

func parseArgs(args []string) (*snmpOpts, error) {
	opts := &snmpOpts{}
	err := check.ParseArgs("check_snmp", opts, args, flags.HelpFlag|flags.PassDoubleDash)
	if err != nil {
		return nil, err
	}

	if err := opts.validateAuth(); err != nil {
		return nil, err
	}

	opts.Labels = splitList(opts.Labels)
	opts.Units = splitList(opts.Units)

	for _, oid := range opts.OIDs {
		opts.objects = append(opts.objects, strings.Fields(strings.ReplaceAll(oid, ",", " "))...)
	}
	numQueried := len(opts.objects)
	opts.objects = append(opts.objects, opts.WarnPresent...)
	opts.objects = append(opts.objects, opts.CritPresent...)

	switch {
	case len(opts.objects) == 0:
		return nil, fmt.Errorf("no object identifier given")
	case len(opts.objects) > matcher.MaxPredicateSets:
		return nil, fmt.Errorf("%w", matcher.ErrTooManyPredicates)
	}

	opts.sets, err = buildPredicateSets(opts, numQueried)
	if err != nil {
		return nil, err
	}

	return opts, nil
}

// validateAuth checks the required credentials for snmp v3.
func (opts *snmpOpts) validateAuth() error {
	if opts.Protocol != "3" {
		return nil
	}

	switch opts.SecLevel {
	case "authNoPriv":
		if opts.SecName == "" || opts.AuthPasswd == "" {
			return fmt.Errorf("missing secname (%s) or authpassword", opts.SecName)
		}
	case "authPriv":
		if opts.SecName == "" || opts.AuthPasswd == "" || opts.PrivPasswd == "" {
			return fmt.Errorf("missing secname (%s), authpassword, or privpasswd", opts.SecName)
		}
	}

	return nil
}

// label returns the status line label, a single -l value replaces the default label.
func (opts *snmpOpts) label() string {
	if len(opts.Labels) == 1 {
		return opts.Labels[0]
	}

	return defaultLabel
}

// splitList splits comma separated lists, single quoted elements may contain commas.
func splitList(list []string) []string {
	res := []string{}
	for _, val := range list {
		for _, elem := range utils.TokenizeBy(val, ",") {
			res = append(res, utils.TrimQuotes(strings.TrimSpace(elem)))
		}
	}

	return res
}

func (opts *snmpOpts) client(ctx context.Context) *gosnmp.GoSNMP {
	snmp := &gosnmp.GoSNMP{
		Target:    opts.Hostname,
		Port:      opts.Port,
		Community: opts.Community,
		Version:   gosnmp.Version1,
		Timeout:   opts.TimeoutDuration(),
		Retries:   opts.Retries,
		Context:   ctx,
		MaxOids:   gosnmp.MaxOids,
	}

	switch opts.Protocol {
	case "2c":
		snmp.Version = gosnmp.Version2c
	case "3":
		snmp.Version = gosnmp.Version3
		snmp.SecurityModel = gosnmp.UserSecurityModel
		params := &gosnmp.UsmSecurityParameters{UserName: opts.SecName}
		snmp.MsgFlags = gosnmp.NoAuthNoPriv
		if opts.SecLevel != "noAuthNoPriv" {
			snmp.MsgFlags = gosnmp.AuthNoPriv
			params.AuthenticationProtocol = gosnmp.MD5
			if opts.AuthProto == "SHA" {
				params.AuthenticationProtocol = gosnmp.SHA
			}
			params.AuthenticationPassphrase = opts.AuthPasswd
		}
		if opts.SecLevel == "authPriv" {
			snmp.MsgFlags = gosnmp.AuthPriv
			params.PrivacyProtocol = gosnmp.DES
			params.PrivacyPassphrase = opts.PrivPasswd
		}
		snmp.SecurityParameters = params
	}

	return snmp
}

func (opts *snmpOpts) run(ctx context.Context) *check.Result {
	snmp := opts.client(ctx)
	if err := snmp.Connect(); err != nil {
		return check.Unknownf(opts.label(), "connect error: %s", err.Error())
	}
	defer snmp.Conn.Close()

	log.Infof("querying %s:%d for %s", opts.Hostname, opts.Port, strings.Join(opts.objects, " "))

	var packet *gosnmp.SnmpPacket
	var err error
	if opts.Next {
		packet, err = snmp.GetNext(opts.objects)
	} else {
		packet, err = snmp.Get(opts.objects)
	}
	if err != nil {
		return check.Unknownf(opts.label(), "%s problem - No data received from host (%s)", opts.label(), err.Error())
	}

	return opts.evaluate(packet)
}
