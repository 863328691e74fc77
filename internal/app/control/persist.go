package control

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/cespare/xxhash/v2"

	"github.com/ghalamif/AegisPilot/internal/domain"
	"github.com/ghalamif/AegisPilot/internal/ports"
)

const (
	paramsRootTag = "controller_params"
	mixTag        = "mix"
	modeTag       = "mode"
	channelAttr   = "channel"
)

// paramsFile is the backing file plus the digest of the last document this
// controller wrote or applied.
type paramsFile struct {
	path   string
	digest uint64
	known  bool
}

// ParamsPath returns the backing file of the params document.
func (c *Controller) ParamsPath() string {
	return c.file.Load().path
}

// LoadFile applies the params document to the controller and its control laws. A
// missing file keeps the current state. A document with the wrong root is rejected
// before anything is applied.
func (c *Controller) LoadFile() error {
	_, err := c.loadFile(false)
	return err
}

// ReloadFile is LoadFile for change notifications. A file whose bytes match the last
// document saved or applied here is skipped. It reports whether anything was applied.
func (c *Controller) ReloadFile() (bool, error) {
	return c.loadFile(true)
}

func (c *Controller) loadFile(skipUnchanged bool) (bool, error) {
	var (
		data      []byte
		path      string
		unchanged bool
	)
	err := c.file.With(func(f *paramsFile) error {
		path = f.path
		var rerr error
		data, rerr = os.ReadFile(path)
		if rerr != nil {
			return rerr
		}
		sum := xxhash.Sum64(data)
		unchanged = f.known && f.digest == sum
		f.digest, f.known = sum, true
		return nil
	})
	if err == nil && skipUnchanged && unchanged {
		return false, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		c.obs.LogWarn("params_file_missing", ports.Field{Key: "path", Value: path})
		return false, nil
	}
	if err != nil {
		c.obs.LogCritical("params_file_unreadable", err, ports.Field{Key: "path", Value: path})
		return false, fmt.Errorf("read params file: %w", err)
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		c.obs.LogCritical("params_file_malformed", err, ports.Field{Key: "path", Value: path})
		return false, fmt.Errorf("%w: %v", ErrConfigFormat, err)
	}
	root := doc.Root()
	if root == nil || !strings.EqualFold(root.Tag, paramsRootTag) {
		tag := ""
		if root != nil {
			tag = root.Tag
		}
		err := fmt.Errorf("%w: root element %q", ErrConfigFormat, tag)
		c.obs.LogCritical("params_file_unknown_format", err, ports.Field{Key: "path", Value: path})
		return false, err
	}

	for _, node := range root.ChildElements() {
		switch {
		case strings.EqualFold(node.Tag, mixTag):
			c.parsePilotMix(node)
		case strings.EqualFold(node.Tag, modeTag):
			c.parseMode(node)
		case strings.EqualFold(node.Tag, c.attitude.ConfigTag()):
			c.parseLaw(c.attitude, node)
		case strings.EqualFold(node.Tag, c.translation.ConfigTag()):
			c.parseLaw(c.translation, node)
		default:
			c.obs.LogWarn("params_unknown_node", ports.Field{Key: "node", Value: node.Tag})
		}
	}
	return true, nil
}

func (c *Controller) parsePilotMix(node *etree.Element) {
	channel := ""
	for _, attr := range node.Attr {
		if strings.EqualFold(attr.Key, channelAttr) {
			channel = strings.TrimSpace(attr.Value)
			break
		}
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(node.Text()), 64)
	if err != nil {
		c.obs.LogWarn("params_mix_invalid",
			ports.Field{Key: "channel", Value: channel},
			ports.Field{Key: "error", Value: err.Error()})
		return
	}
	switch {
	case strings.EqualFold(channel, "roll"):
		c.SetRollMix(v)
	case strings.EqualFold(channel, "pitch"):
		c.SetPitchMix(v)
	default:
		c.obs.LogWarn("params_mix_unknown_channel", ports.Field{Key: "channel", Value: channel})
	}
}

func (c *Controller) parseMode(node *etree.Element) {
	u, err := strconv.ParseUint(strings.TrimSpace(node.Text()), 10, 8)
	if err != nil {
		c.obs.LogWarn("params_mode_invalid", ports.Field{Key: "error", Value: err.Error()})
		return
	}
	_ = c.SetMode(domain.ControllerMode(u))
}

func (c *Controller) parseLaw(law ports.ControlLaw, node *etree.Element) {
	if err := law.ParseConfig(node); err != nil {
		c.obs.LogError("params_law_invalid", err, ports.Field{Key: "node", Value: node.Tag})
	}
}

// SaveFile rebuilds the whole params document and replaces the file with it.
func (c *Controller) SaveFile() error {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement(paramsRootTag)

	root.AddChild(c.attitude.ConfigElement())
	root.AddChild(c.translation.ConfigElement())

	mix := c.mix.Load()
	appendMix(root, "roll", mix[domain.Roll])
	appendMix(root, "pitch", mix[domain.Pitch])

	mode := root.CreateElement(modeTag)
	mode.SetText(strconv.FormatUint(uint64(c.Mode()), 10))

	doc.Indent(2)
	data, err := doc.WriteToBytes()
	if err != nil {
		return fmt.Errorf("encode params: %w", err)
	}

	return c.file.With(func(f *paramsFile) error {
		if err := writeFileReplace(f.path, data); err != nil {
			return err
		}
		f.digest, f.known = xxhash.Sum64(data), true
		return nil
	})
}

func appendMix(root *etree.Element, channel string, v float64) {
	node := root.CreateElement(mixTag)
	node.CreateAttr(channelAttr, channel)
	node.SetText(strconv.FormatFloat(v, 'g', -1, 64))
}

// writeFileReplace writes to a sibling temp file and renames it over path so readers
// never see a partial document.
func writeFileReplace(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
