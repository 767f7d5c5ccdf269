package check_snmp

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/consol-monitoring/checkplugins/pkg/check"
	"github.com/consol-monitoring/checkplugins/pkg/convert"
	"github.com/consol-monitoring/checkplugins/pkg/matcher"
	"github.com/consol-monitoring/checkplugins/pkg/threshold"
	"github.com/consol-monitoring/checkplugins/pkg/utils"
	"github.com/gosnmp/gosnmp"
)

// value is a single pdu converted for evaluation and output.
type value struct {
	obs  matcher.Observation[float64]
	name string
	unit string // perf data unit, "c" for counters
	show string
}

// observe converts a pdu into an observation.
func observe(pdu gosnmp.SnmpPDU) value {
	val := value{
		name: strings.TrimPrefix(pdu.Name, "."),
	}

	switch pdu.Type {
	case gosnmp.NoSuchObject, gosnmp.NoSuchInstance, gosnmp.EndOfMibView, gosnmp.Null:
		return val
	case gosnmp.OctetString:
		raw, _ := pdu.Value.([]byte)
		val.obs.Text = string(raw)
		val.obs.Value, val.obs.Numeric = utils.LeadingNumber(val.obs.Text)
	case gosnmp.Counter32, gosnmp.Counter64:
		val.unit = "c"
		val.obs.Value, val.obs.Numeric = bigFloat(pdu.Value)
		val.obs.Text = convert.Num2String(val.obs.Value)
	case gosnmp.Integer, gosnmp.Gauge32, gosnmp.TimeTicks, gosnmp.Uinteger32:
		val.obs.Value, val.obs.Numeric = bigFloat(pdu.Value)
		val.obs.Text = convert.Num2String(val.obs.Value)
	default:
		val.obs.Text = fmt.Sprintf("%v", pdu.Value)
	}
	val.obs.Present = true
	val.show = val.obs.Text

	return val
}

func bigFloat(raw interface{}) (float64, bool) {
	num := gosnmp.ToBigInt(raw)
	if num == nil {
		return 0, false
	}
	res, _ := new(big.Float).SetInt(num).Float64()

	return res, true
}

// buildPredicateSets creates one predicate set per object. The first numQueried objects
// take thresholds, strings and regular expressions, the remaining are presence tests.
func buildPredicateSets(opts *snmpOpts, numQueried int) ([]*matcher.PredicateSet[float64], error) {
	warnings, err := threshold.ParseList[float64](opts.Warning)
	if err != nil {
		return nil, fmt.Errorf("invalid warning threshold: %w", err)
	}
	criticals, err := threshold.ParseList[float64](opts.Critical)
	if err != nil {
		return nil, fmt.Errorf("invalid critical threshold: %w", err)
	}

	regexes := []string{}
	insensitive := []bool{}
	for _, reg := range opts.Ereg {
		regexes = append(regexes, reg)
		insensitive = append(insensitive, false)
	}
	for _, reg := range opts.Eregi {
		regexes = append(regexes, reg)
		insensitive = append(insensitive, true)
	}

	sets := make([]*matcher.PredicateSet[float64], 0, len(opts.objects))
	for i := range opts.objects {
		set := &matcher.PredicateSet[float64]{}
		sets = append(sets, set)

		if i >= numQueried {
			if i-numQueried < len(opts.WarnPresent) {
				set.Warning.Present = true
			} else {
				set.Critical.Present = true
			}

			continue
		}

		if i < len(warnings) {
			set.Warning = matcher.TierFromRange(warnings[i])
		}
		if i < len(criticals) {
			set.Critical = matcher.TierFromRange(criticals[i])
		}
		if idx, ok := perObject(len(opts.Strings), i); ok {
			set.Expected = &opts.Strings[idx]
		}
		if idx, ok := perObject(len(regexes), i); ok {
			set.Regex, err = matcher.CompileRegex(regexes[idx], insensitive[idx])
			if err != nil {
				return nil, fmt.Errorf("%w", err)
			}
		}
	}

	return sets, nil
}

// perObject returns the list index used for object i: a single element applies to all objects.
func perObject(size, i int) (int, bool) {
	switch {
	case size == 1:
		return 0, true
	case i < size:
		return i, true
	}

	return 0, false
}

// evaluate checks all returned pdus and builds the plugin result.
// An agent error status turns an OK result into UNKNOWN and marks the failing object.
func (opts *snmpOpts) evaluate(packet *gosnmp.SnmpPacket) *check.Result {
	label := opts.label()
	res := check.NewResult(label)

	pdus := packet.Variables
	agentErr := packet.Error != gosnmp.NoError
	if agentErr {
		log.Debugf("agent returned error status %s for object %d", packet.Error, packet.ErrorIndex)
	}

	if len(pdus) == 0 {
		return check.Unknownf(label, "%s problem - No data received from host", label)
	}
	if len(pdus) > len(opts.sets) {
		pdus = pdus[:len(opts.sets)]
	}

	values := make([]value, 0, len(pdus))
	observations := make([]matcher.Observation[float64], 0, len(pdus))
	for i, pdu := range pdus {
		val := observe(pdu)
		if set := opts.sets[i]; val.obs.Numeric && (set.Warning.Numeric() || set.Critical.Numeric()) {
			val.show = convert.Num2String(val.obs.Value)
		}
		log.Debugf("%s: %s (%v)", val.name, val.show, pdu.Type)
		values = append(values, val)
		observations = append(observations, val.obs)
	}

	states, total, err := matcher.EvaluateAll(opts.sets[:len(values)], observations)
	if err != nil {
		if agentErr {
			return check.Unknownf(label, "No valid data returned (agent returned error status %s)", packet.Error)
		}
		if errors.Is(err, matcher.ErrNoValidData) {
			return check.Unknownf(label, "No valid data returned")
		}

		return check.Unknownf(label, "%s", err.Error())
	}

	if agentErr {
		if idx := int(packet.ErrorIndex) - 1; idx >= 0 && idx < len(states) {
			states[idx] = check.Unknown
		}
		if total == check.OK {
			total = check.Unknown
		}
	}

	output := make([]string, 0, len(values))
	for i, val := range values {
		mark := ""
		if states[i] != check.OK {
			mark = "*"
		}
		entry := mark + val.show + mark
		if len(opts.Labels) > 1 && i < len(opts.Labels) {
			entry = opts.Labels[i] + " " + entry
		}
		if i < len(opts.Units) {
			entry += " " + opts.Units[i]
		}
		output = append(output, entry)

		if val.obs.Numeric {
			res.Metrics = append(res.Metrics, &check.Metric{
				Name:  val.name,
				Unit:  val.unit,
				Value: convert.Num2String(val.obs.Value),
			})
		}
	}

	text := strings.Join(output, opts.OutputDelimiter)
	if agentErr {
		text += fmt.Sprintf(" (agent returned error status %s)", packet.Error)
	}
	res.Set(total, "%s", text)

	return res
}
