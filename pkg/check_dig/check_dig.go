package check_dig

import (
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/consol-monitoring/checkplugins/pkg/check"
	"github.com/consol-monitoring/checkplugins/pkg/logger"
	"github.com/consol-monitoring/checkplugins/pkg/matcher"
	"github.com/consol-monitoring/checkplugins/pkg/threshold"
	"github.com/jessevdk/go-flags"
	"github.com/miekg/dns"
)

const label = "DNS"

var log = logger.Log

type digOpts struct {
	check.CommonOpts
	Hostname        string   `short:"H" long:"hostname" default:"127.0.0.1" description:"DNS server to query"`
	QueryAddress    string   `short:"l" long:"query_address" required:"true" description:"Machine name to lookup"`
	RecordType      string   `short:"T" long:"record_type" default:"A" description:"Record type to lookup"`
	ExpectedAddress []string `short:"a" long:"expected_address" description:"An address expected to be in the answer section (can be repeated)"`
	Port            int      `short:"p" long:"port" default:"53" description:"Port number"`
	Warning         string   `short:"w" long:"warning" description:"Response time range in seconds which results in warning status"`
	Critical        string   `short:"c" long:"critical" description:"Response time range in seconds which results in critical status"`
	Norec           bool     `long:"norec" description:"Disable recursion"`
	TCP             bool     `long:"tcp" description:"Use tcp instead of udp"`

	thresholds *threshold.Thresholds[float64]
}

func Check(ctx context.Context, output io.Writer, args []string) int {
	opts, err := parseArgs(args)
	if err != nil {
		return check.UsageError(output, err)
	}
	opts.Setup()

	res := check.RunWithTimeout(ctx, opts.TimeoutDuration(), label, opts.run)

	return res.Write(output)
}

func parseArgs(args []string) (*digOpts, error) {
	opts := &digOpts{}
	err := check.ParseArgs("check_dig", opts, args, flags.HelpFlag|flags.PassDoubleDash)
	if err != nil {
		return nil, err
	}

	if opts.Port <= 0 || opts.Port > 65535 {
		return nil, fmt.Errorf("port must be a positive integer - %d", opts.Port)
	}

	opts.thresholds, err = threshold.NewThresholds(opts.Warning, opts.Critical, threshold.DefaultLower(0.0))
	if err != nil {
		return nil, err
	}

	return opts, nil
}

func (opts *digOpts) run(ctx context.Context) *check.Result {
	res := check.NewResult(label)

	queryType, ok := dns.StringToType[strings.ToUpper(opts.RecordType)]
	if !ok {
		return check.Unknownf(label, "%s is invalid query type", opts.RecordType)
	}

	fragments := opts.ExpectedAddress
	if len(fragments) == 0 {
		fragments = []string{opts.QueryAddress}
	}
	expect, err := matcher.NewMatchSpec(fragments, false, false)
	if err != nil {
		return check.Unknownf(label, "%s", err.Error())
	}

	client := &dns.Client{Timeout: opts.TimeoutDuration()}
	if opts.TCP {
		client.Net = "tcp"
	}
	msg := &dns.Msg{
		MsgHdr: dns.MsgHdr{
			RecursionDesired: !opts.Norec,
			Opcode:           dns.OpcodeQuery,
		},
		Question: []dns.Question{{Name: dns.Fqdn(opts.QueryAddress), Qtype: queryType, Qclass: dns.ClassINET}},
	}
	msg.Id = dns.Id()

	server := net.JoinHostPort(opts.Hostname, strconv.Itoa(opts.Port))
	log.Infof("querying %s for %s (%s), looking for: %s", server, opts.QueryAddress, opts.RecordType, strings.Join(fragments, ", "))

	start := time.Now()
	resp, _, err := client.ExchangeContext(ctx, msg, server)
	elapsed := time.Since(start).Seconds()

	state, text := evaluateAnswer(resp, err, expect)
	if text == "" {
		text = "Probably a non-existent host/domain"
	}

	switch opts.thresholds.Get(elapsed) {
	case check.Critical:
		state = check.Critical
	case check.Warning:
		state = check.Warning
	}

	res.Set(state, "%.3f seconds response time (%s)", elapsed, text)
	res.Metrics = append(res.Metrics, &check.Metric{
		Name:     "time",
		Unit:     "s",
		Value:    elapsed,
		Warning:  opts.thresholds.Warning,
		Critical: opts.thresholds.Critical,
		Min:      0.0,
	})

	return res
}

// evaluateAnswer searches the answer section for the first record matching expect.
func evaluateAnswer(resp *dns.Msg, exchangeErr error, expect *matcher.MatchSpec) (check.State, string) {
	if exchangeErr != nil {
		log.Debugf("dns exchange failed: %s", exchangeErr.Error())

		return check.Warning, "dig returned an error status"
	}

	if resp.Rcode != dns.RcodeSuccess {
		return check.Critical, fmt.Sprintf("server returned %s", dns.RcodeToString[resp.Rcode])
	}

	if len(resp.Answer) == 0 {
		return check.Unknown, "No ANSWER SECTION found"
	}

	for _, answer := range resp.Answer {
		line := answer.String()
		log.Debugf("answer: %s", line)
		if expect.Match(line) {
			return check.OK, strings.ReplaceAll(line, "\t", " ")
		}
	}

	return check.Warning, "Server not found in ANSWER SECTION"
}
