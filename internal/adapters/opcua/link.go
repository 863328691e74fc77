package opcua

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gopcua/opcua"
	"github.com/gopcua/opcua/ua"

	"github.com/ghalamif/AegisPilot/internal/domain"
	"github.com/ghalamif/AegisPilot/internal/ports"
)

// Config captures the OPC UA session and the ground-station node map.
type Config struct {
	Endpoint         string        `yaml:"endpoint"`
	Username         string        `yaml:"username"`
	Password         string        `yaml:"password"`
	SecurityMode     string        `yaml:"security_mode"`
	SecurityPolicy   string        `yaml:"security_policy"`
	ApplicationName  string        `yaml:"application_name"`
	PublishInterval  time.Duration `yaml:"publish_interval"`
	SamplingInterval time.Duration `yaml:"sampling_interval"`

	ModeRequestNode string      `yaml:"mode_request_node"`
	ModeStatusNode  string      `yaml:"mode_status_node"`
	CaptureNode     string      `yaml:"capture_reference_node"`
	Params          []ParamNode `yaml:"params"`
}

// ParamNode binds a controller parameter id to a writable node.
type ParamNode struct {
	NodeID  string `yaml:"node_id"`
	ParamID string `yaml:"param_id"`
}

func (c *Config) ApplyDefaults() {
	if c.SecurityMode == "" {
		c.SecurityMode = "None"
	}
	if c.SecurityPolicy == "" {
		c.SecurityPolicy = "None"
	}
	if c.ApplicationName == "" {
		c.ApplicationName = "AegisPilot Ground Link"
	}
	if c.PublishInterval <= 0 {
		c.PublishInterval = 100 * time.Millisecond
	}
	if c.SamplingInterval < 0 {
		c.SamplingInterval = 0
	}
}

func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return errors.New("endpoint is required")
	}
	if c.ModeRequestNode == "" && c.CaptureNode == "" && len(c.Params) == 0 {
		return errors.New("at least one command node must be configured")
	}
	for _, p := range c.Params {
		if p.NodeID == "" || strings.TrimSpace(p.ParamID) == "" {
			return fmt.Errorf("param node %q needs both node_id and param_id", p.NodeID)
		}
	}
	return nil
}

type routeKind int

const (
	routeMode routeKind = iota
	routeCapture
	routeParam
)

type route struct {
	kind    routeKind
	nodeID  string
	paramID string
}

// Link is a ports.CommandLink that turns node writes made by a ground station into
// controller commands and publishes the committed mode back.
type Link struct {
	cfg Config
	obs ports.Observability

	mu          sync.Mutex
	client      *opcua.Client
	sub         *opcua.Subscription
	cancel      context.CancelFunc
	unsubscribe func()
	started     bool
	wg          sync.WaitGroup

	routes      map[uint32]route
	lastCapture map[uint32]bool
}

var _ ports.CommandLink = (*Link)(nil)

func NewLink(cfg Config, obs ports.Observability) (*Link, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Link{
		cfg:         cfg,
		obs:         obs,
		routes:      buildRoutes(cfg),
		lastCapture: make(map[uint32]bool),
	}, nil
}

func buildRoutes(cfg Config) map[uint32]route {
	routes := make(map[uint32]route)
	handle := uint32(1)
	add := func(r route) {
		routes[handle] = r
		handle++
	}
	if cfg.ModeRequestNode != "" {
		add(route{kind: routeMode, nodeID: cfg.ModeRequestNode})
	}
	if cfg.CaptureNode != "" {
		add(route{kind: routeCapture, nodeID: cfg.CaptureNode})
	}
	for _, p := range cfg.Params {
		add(route{kind: routeParam, nodeID: p.NodeID, paramID: strings.TrimSpace(p.ParamID)})
	}
	return routes
}

func (l *Link) Start(ctx context.Context, cmd ports.Commander) error {
	l.mu.Lock()
	if l.started {
		l.mu.Unlock()
		return fmt.Errorf("opcua link already started")
	}
	l.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	client, err := opcua.NewClient(l.cfg.Endpoint, l.buildClientOptions()...)
	if err != nil {
		cancel()
		return fmt.Errorf("opcua new client: %w", err)
	}
	if err := client.Connect(ctx); err != nil {
		cancel()
		return fmt.Errorf("opcua connect: %w", err)
	}

	notifyCh := make(chan *opcua.PublishNotificationData, len(l.routes)*4+1)
	sub, err := client.Subscribe(ctx, &opcua.SubscriptionParameters{
		Interval: l.cfg.PublishInterval,
	}, notifyCh)
	if err != nil {
		cancel()
		_ = client.Close(ctx)
		return fmt.Errorf("opcua subscribe: %w", err)
	}

	for handle, r := range l.routes {
		if err := l.monitor(ctx, sub, handle, r.nodeID); err != nil {
			cleanupOnError(ctx, cancel, sub, client)
			return err
		}
	}

	statusCh := make(chan domain.ControllerMode, 1)
	unsubscribe := func() {}
	if l.cfg.ModeStatusNode != "" {
		statusNode, err := ua.ParseNodeID(l.cfg.ModeStatusNode)
		if err != nil {
			cleanupOnError(ctx, cancel, sub, client)
			return fmt.Errorf("parse node id %q: %w", l.cfg.ModeStatusNode, err)
		}
		unsubscribe = cmd.Subscribe(func(m domain.ControllerMode) {
			latestOnly(statusCh, m)
		})
		// publish the mode held at connect time
		latestOnly(statusCh, cmd.Mode())

		l.wg.Add(1)
		go l.publishStatus(ctx, client, statusNode, statusCh)
	}

	l.mu.Lock()
	l.client = client
	l.sub = sub
	l.cancel = cancel
	l.unsubscribe = unsubscribe
	l.started = true
	l.mu.Unlock()

	l.wg.Add(1)
	go l.consume(ctx, cmd, notifyCh)
	l.obs.LogInfo("groundlink_started", ports.Field{Key: "endpoint", Value: l.cfg.Endpoint})
	return nil
}

func (l *Link) monitor(ctx context.Context, sub *opcua.Subscription, handle uint32, node string) error {
	nodeID, err := ua.ParseNodeID(node)
	if err != nil {
		return fmt.Errorf("parse node id %q: %w", node, err)
	}
	req := opcua.NewMonitoredItemCreateRequestWithDefaults(nodeID, ua.AttributeIDValue, handle)
	if l.cfg.SamplingInterval > 0 {
		req.RequestedParameters.SamplingInterval = float64(l.cfg.SamplingInterval / time.Millisecond)
	}
	res, err := sub.Monitor(ctx, ua.TimestampsToReturnBoth, req)
	if err != nil {
		return fmt.Errorf("monitor node %q: %w", node, err)
	}
	if len(res.Results) == 0 {
		return fmt.Errorf("monitor node %q failed: empty result", node)
	}
	if res.Results[0].StatusCode != ua.StatusOK {
		return fmt.Errorf("monitor node %q failed: %s", node, res.Results[0].StatusCode)
	}
	return nil
}

func (l *Link) Stop() error {
	l.mu.Lock()
	if !l.started {
		l.mu.Unlock()
		return nil
	}
	cancel := l.cancel
	sub := l.sub
	client := l.client
	unsubscribe := l.unsubscribe
	l.started = false
	l.cancel = nil
	l.sub = nil
	l.client = nil
	l.unsubscribe = nil
	l.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	if cancel != nil {
		cancel()
	}

	ctx, ctxCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer ctxCancel()

	var err error
	if sub != nil {
		if e := sub.Cancel(ctx); e != nil && !errors.Is(e, context.Canceled) {
			err = errors.Join(err, e)
		}
	}
	if client != nil {
		if e := client.Close(ctx); e != nil && !errors.Is(e, context.Canceled) {
			err = errors.Join(err, e)
		}
	}

	l.wg.Wait()
	return err
}

func (l *Link) consume(ctx context.Context, cmd ports.Commander, ch <-chan *opcua.PublishNotificationData) {
	defer l.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case notif := <-ch:
			if notif == nil {
				continue
			}
			if notif.Error != nil {
				l.obs.LogWarn("groundlink_notification_error", ports.Field{Key: "error", Value: notif.Error.Error()})
				continue
			}
			data, ok := notif.Value.(*ua.DataChangeNotification)
			if !ok {
				continue
			}
			for _, item := range data.MonitoredItems {
				if item == nil || item.Value == nil {
					continue
				}
				l.handle(cmd, item.ClientHandle, item.Value.Value)
			}
		}
	}
}

// handle applies one node value change to the controller.
func (l *Link) handle(cmd ports.Commander, handle uint32, v *ua.Variant) {
	r, ok := l.routes[handle]
	if !ok {
		return
	}
	fv, ok := variantToFloat(v)
	if !ok {
		l.obs.LogWarn("groundlink_unsupported_value", ports.Field{Key: "node", Value: r.nodeID})
		return
	}

	switch r.kind {
	case routeMode:
		if fv < 0 || fv != float64(uint8(fv)) {
			l.obs.LogWarn("groundlink_bad_mode_request", ports.Field{Key: "value", Value: fv})
			return
		}
		if err := cmd.SetMode(domain.ControllerMode(uint8(fv))); err != nil {
			l.obs.LogWarn("groundlink_mode_rejected", ports.Field{Key: "error", Value: err.Error()})
		}
	case routeCapture:
		// a capture fires on the rising edge of the trigger node
		pressed := fv != 0
		was, seen := l.lastCapture[handle]
		l.lastCapture[handle] = pressed
		if !seen || was || !pressed {
			return
		}
		if err := cmd.CaptureReferencePosition(); err != nil {
			l.obs.LogWarn("groundlink_capture_failed", ports.Field{Key: "error", Value: err.Error()})
		}
	case routeParam:
		cmd.SetParameter(domain.NewParameter(r.paramID, fv, domain.ComponentController))
	}
}

func (l *Link) publishStatus(ctx context.Context, client *opcua.Client, node *ua.NodeID, ch <-chan domain.ControllerMode) {
	defer l.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case m := <-ch:
			req := &ua.WriteRequest{
				NodesToWrite: []*ua.WriteValue{{
					NodeID:      node,
					AttributeID: ua.AttributeIDValue,
					Value: &ua.DataValue{
						EncodingMask: ua.DataValueValue,
						Value:        ua.MustVariant(m.String()),
					},
				}},
			}
			if _, err := client.Write(ctx, req); err != nil && !errors.Is(err, context.Canceled) {
				l.obs.LogError("groundlink_status_write_failed", err, ports.Field{Key: "mode", Value: m.String()})
			}
		}
	}
}

// latestOnly replaces any pending value so the writer always sees the newest mode.
func latestOnly(ch chan domain.ControllerMode, m domain.ControllerMode) {
	for {
		select {
		case ch <- m:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

func (l *Link) buildClientOptions() []opcua.Option {
	opts := []opcua.Option{
		opcua.SecurityModeString(normalizeSecurityMode(l.cfg.SecurityMode)),
		opcua.SecurityPolicy(normalizeSecurityPolicy(l.cfg.SecurityPolicy)),
		opcua.ApplicationName(l.cfg.ApplicationName),
		opcua.AutoReconnect(true),
	}

	if l.cfg.Username != "" {
		opts = append(opts, opcua.AuthUsername(l.cfg.Username, l.cfg.Password))
	} else {
		opts = append(opts, opcua.AuthAnonymous())
	}
	return opts
}

func cleanupOnError(ctx context.Context, cancel context.CancelFunc, sub *opcua.Subscription, client *opcua.Client) {
	cancel()
	if sub != nil {
		_ = sub.Cancel(ctx)
	}
	if client != nil {
		_ = client.Close(ctx)
	}
}

func variantToFloat(v *ua.Variant) (float64, bool) {
	if v == nil {
		return 0, false
	}

	switch val := v.Value().(type) {
	case bool:
		if val {
			return 1, true
		}
		return 0, true
	case float32:
		return float64(val), true
	case float64:
		return val, true
	case int8:
		return float64(val), true
	case uint8:
		return float64(val), true
	case int16:
		return float64(val), true
	case uint16:
		return float64(val), true
	case int32:
		return float64(val), true
	case uint32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint64:
		return float64(val), true
	default:
		return 0, false
	}
}

func normalizeSecurityMode(mode string) string {
	switch strings.ToLower(mode) {
	case "sign":
		return "Sign"
	case "signandencrypt", "signencrypt", "sign_and_encrypt", "sign+encrypt":
		return "SignAndEncrypt"
	default:
		return "None"
	}
}

func normalizeSecurityPolicy(policy string) string {
	if policy == "" {
		return "None"
	}
	return policy
}
