package check_tcp

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/consol-monitoring/checkplugins/pkg/check"
	"github.com/consol-monitoring/checkplugins/pkg/logger"
	"github.com/consol-monitoring/checkplugins/pkg/matcher"
	"github.com/consol-monitoring/checkplugins/pkg/threshold"
	"github.com/jessevdk/go-flags"
)

const (
	label = "TCP"

	// DefaultMaxBytes limits the bytes read from the socket.
	DefaultMaxBytes = 4096
)

var log = logger.Log

var escapes = strings.NewReplacer(`\n`, "\n", `\r`, "\r", `\t`, "\t", `\\`, `\`)

type tcpOpts struct {
	check.CommonOpts
	Hostname    string   `short:"H" long:"hostname" default:"127.0.0.1" description:"Host name or IP address"`
	Port        uint16   `short:"p" long:"port" required:"true" description:"Port number"`
	Send        string   `short:"s" long:"send" description:"String to send to the server"`
	Expect      []string `short:"e" long:"expect" description:"String to expect in server response (may be repeated)"`
	All         bool     `short:"A" long:"all" description:"All expect strings need to occur in server response. Default is any"`
	Exact       bool     `long:"exact" description:"Expect strings must match at the start of the server response"`
	Escape      bool     `short:"E" long:"escape" description:"Allow \\n, \\r, \\t or \\\\ in send and quit strings"`
	Quit        string   `short:"q" long:"quit" description:"String to send server to initiate a clean close of the connection"`
	Mismatch    string   `short:"M" long:"mismatch" default:"warn" choice:"ok" choice:"warn" choice:"crit" description:"Accept expected string mismatches with states ok, warn, crit"`
	Refuse      string   `short:"r" long:"refuse" default:"crit" choice:"ok" choice:"warn" choice:"crit" description:"Accept TCP refusals with states ok, warn, crit"`
	Jail        bool     `short:"j" long:"jail" description:"Hide output from TCP socket"`
	MaxBytes    int      `short:"m" long:"maxbytes" default:"4096" description:"Close connection once more than this number of bytes are received"`
	SSL         bool     `short:"S" long:"ssl" description:"Use SSL for the connection"`
	Insecure    bool     `short:"k" long:"insecure" description:"Do not verify the server certificate"`
	Certificate int      `short:"D" long:"certificate" description:"Minimum number of days a certificate has to be valid"`
	Warning     string   `short:"w" long:"warning" description:"Response time to result in warning status (seconds)"`
	Critical    string   `short:"c" long:"critical" description:"Response time to result in critical status (seconds)"`

	thresholds    *threshold.Thresholds[float64]
	expect        *matcher.MatchSpec
	mismatchState check.State
	refuseState   check.State
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

func parseArgs(args []string) (*tcpOpts, error) {
	opts := &tcpOpts{}
	err := check.ParseArgs("check_tcp", opts, args, flags.HelpFlag|flags.PassDoubleDash)
	if err != nil {
		return nil, err
	}

	if opts.Port == 0 {
		return nil, fmt.Errorf("invalid port number")
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	if opts.Certificate < 0 {
		return nil, fmt.Errorf("invalid certificate expiration period")
	}
	if opts.Certificate > 0 {
		opts.SSL = true
	}
	if opts.Escape {
		opts.Send = escapes.Replace(opts.Send)
		opts.Quit = escapes.Replace(opts.Quit)
	}

	opts.thresholds, err = threshold.NewThresholds(opts.Warning, opts.Critical, threshold.DefaultLower(0.0))
	if err != nil {
		return nil, err
	}

	if len(opts.Expect) > 0 {
		opts.expect, err = matcher.NewMatchSpec(opts.Expect, opts.All, opts.Exact)
		if err != nil {
			return nil, fmt.Errorf("%w", err)
		}
	}

	opts.mismatchState, _ = check.ParseState(opts.Mismatch)
	opts.refuseState, _ = check.ParseState(opts.Refuse)

	return opts, nil
}

func (opts *tcpOpts) run(ctx context.Context) *check.Result {
	start := time.Now()
	address := net.JoinHostPort(opts.Hostname, strconv.Itoa(int(opts.Port)))

	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		log.Debugf("connect to %s failed: %s", address, err.Error())
		if errors.Is(err, syscall.ECONNREFUSED) {
			res := check.NewResult(label)
			res.Set(opts.refuseState, "Connection refused")

			return res
		}

		return check.Criticalf(label, "Socket error: %s", err.Error())
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			log.Debugf("setting deadline failed: %s", err.Error())
		}
	}

	if opts.SSL {
		tlsConn := tls.Client(conn, &tls.Config{
			ServerName:         opts.Hostname,
			InsecureSkipVerify: opts.Insecure, //nolint:gosec // explicitly requested by --insecure
			MinVersion:         tls.VersionTLS12,
		})
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			return check.Criticalf(label, "Cannot make SSL connection: %s", err.Error())
		}
		conn = tlsConn

		if opts.Certificate > 0 {
			certs := tlsConn.ConnectionState().PeerCertificates
			if len(certs) == 0 {
				return check.Criticalf(label, "Cannot retrieve server certificate.")
			}

			return certificateResult(certs[0], opts.Certificate, time.Now())
		}
	}

	if opts.Send != "" {
		if _, err := conn.Write([]byte(opts.Send)); err != nil {
			return check.Criticalf(label, "Error sending '%s' to host: %s", opts.Send, err.Error())
		}
	}

	response := ""
	if opts.expect != nil {
		response = opts.readResponse(conn)
		log.Debugf("received %d bytes: %q", len(response), response)
	}

	if opts.Quit != "" {
		if _, err := conn.Write([]byte(opts.Quit)); err != nil {
			log.Debugf("sending quit string failed: %s", err.Error())
		}
	}

	elapsed := time.Since(start).Seconds()

	return opts.buildResult(elapsed, response)
}

// readResponse reads until the expect strings match, the server closes the
// connection or maxbytes are received.
func (opts *tcpOpts) readResponse(conn net.Conn) string {
	buf := bytes.Buffer{}
	chunk := make([]byte, 1024)
	for buf.Len() < opts.MaxBytes {
		num, err := conn.Read(chunk)
		buf.Write(chunk[:num])
		if opts.expect.Match(buf.String()) {
			break
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.Debugf("read error: %s", err.Error())
			}

			break
		}
	}

	res := buf.String()
	if len(res) > opts.MaxBytes {
		res = res[:opts.MaxBytes]
	}

	return res
}

func (opts *tcpOpts) buildResult(elapsed float64, response string) *check.Result {
	res := check.NewResult(label)
	res.Metrics = append(res.Metrics, &check.Metric{
		Name:     "time",
		Unit:     "s",
		Value:    elapsed,
		Warning:  opts.thresholds.Warning,
		Critical: opts.thresholds.Critical,
		Min:      0.0,
		Max:      float64(opts.Timeout),
	})

	banner := ""
	if response != "" && !opts.Jail {
		banner = " [" + strings.TrimSpace(response) + "]"
	}

	if opts.expect != nil && !opts.expect.Match(response) {
		if response == "" {
			res.Set(opts.mismatchState, "No data received from host")
		} else {
			res.Set(opts.mismatchState, "Unexpected response from host/socket:%s", banner)
		}

		return res
	}

	res.Set(opts.thresholds.Get(elapsed), "%.3f seconds response time on port %d%s", elapsed, opts.Port, banner)

	return res
}

// certificateResult checks the remaining lifetime of the server certificate.
func certificateResult(cert *x509.Certificate, minDays int, now time.Time) *check.Result {
	res := check.NewResult(label)
	name := cert.Subject.CommonName
	expiry := cert.NotAfter.UTC().Format("2006-01-02 15:04:05 +0000")
	daysLeft := int(cert.NotAfter.Sub(now).Hours() / 24)

	switch {
	case cert.NotAfter.Before(now):
		res.Set(check.Critical, "Certificate '%s' expired on %s.", name, expiry)
	case daysLeft == 0:
		res.Set(check.Warning, "Certificate '%s' expires today (%s).", name, expiry)
	case daysLeft <= minDays:
		res.Set(check.Warning, "Certificate '%s' expires in %d day(s) (%s).", name, daysLeft, expiry)
	default:
		res.Set(check.OK, "Certificate '%s' will expire on %s.", name, expiry)
	}

	return res
}
