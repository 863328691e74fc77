package pid

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

const (
	gainTag  = "gain"
	typeAttr = "type"

	gainProportional = "proportional"
	gainDerivative   = "derivative"
	gainIntegral     = "integral"
)

// loopElement renders a loop as <tag><gain type="...">v</gain>...</tag>.
func loopElement(tag string, l *Loop) *etree.Element {
	el := etree.NewElement(tag)
	for _, g := range []struct {
		name string
		v    float64
	}{
		{gainProportional, l.Kp},
		{gainDerivative, l.Kd},
		{gainIntegral, l.Ki},
	} {
		gain := el.CreateElement(gainTag)
		gain.CreateAttr(typeAttr, g.name)
		gain.SetText(formatFloat(g.v))
	}
	return el
}

// parseLoop reads gain children of el into l. Gains that are absent keep their value.
func parseLoop(el *etree.Element, l *Loop) error {
	for _, child := range el.ChildElements() {
		if !strings.EqualFold(child.Tag, gainTag) {
			continue
		}
		v, err := parseFloat(child)
		if err != nil {
			return fmt.Errorf("%s gain: %w", el.Tag, err)
		}
		switch kind := strings.ToLower(attrFold(child, typeAttr)); kind {
		case gainProportional:
			l.Kp = v
		case gainDerivative:
			l.Kd = v
		case gainIntegral:
			l.Ki = v
		default:
			return fmt.Errorf("%s: unknown gain type %q", el.Tag, kind)
		}
	}
	return nil
}

func attrFold(el *etree.Element, key string) string {
	for _, a := range el.Attr {
		if strings.EqualFold(a.Key, key) {
			return strings.TrimSpace(a.Value)
		}
	}
	return ""
}

func parseFloat(el *etree.Element) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(el.Text()), 64)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
