package identify

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/moyoez/tvremote-go/tool"
	"github.com/moyoez/tvremote-go/types"
)

// Descriptor is the part of a UPnP device description used for identification.
type Descriptor struct {
	Manufacturer string
	ModelName    string
}

// Info joins the non-empty fields with " / ".
func (d Descriptor) Info() string {
	return joinNonEmpty(" / ", d.Manufacturer, d.ModelName)
}

// Mentions reports whether manufacturer or model contain vendor, ignoring case.
func (d Descriptor) Mentions(vendor string) bool {
	return types.ContainsFold(d.Manufacturer, vendor) || types.ContainsFold(d.ModelName, vendor)
}

// ParseDescriptor scans every element regardless of namespace and keeps the
// first non-empty manufacturer and model name, matched by tag suffix.
func ParseDescriptor(data []byte) (Descriptor, error) {
	var d Descriptor
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charset.NewReaderLabel

	var (
		target  *string
		text    strings.Builder
		started bool
	)
	finish := func() {
		if target != nil {
			if s := strings.TrimSpace(text.String()); s != "" {
				*target = s
			}
		}
		target = nil
		text.Reset()
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Descriptor{}, fmt.Errorf("%w: %v", types.ErrMalformedReply, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			finish()
			started = true
			local := strings.ToLower(t.Name.Local)
			switch {
			case strings.HasSuffix(local, "manufacturer") && d.Manufacturer == "":
				target = &d.Manufacturer
			case strings.HasSuffix(local, "modelname") && d.ModelName == "":
				target = &d.ModelName
			}
		case xml.CharData:
			if target != nil {
				text.Write(t)
			}
		case xml.EndElement:
			finish()
		}
	}
	if !started {
		return Descriptor{}, fmt.Errorf("%w: no root element", types.ErrMalformedReply)
	}
	return d, nil
}

// ProbeDescriptor fetches and inspects the document at location.
// OK is true only when the document names the vendor.
func (c *Classifier) ProbeDescriptor(ctx context.Context, location string) types.ProbeResult {
	if location == "" {
		return types.ProbeResult{}
	}
	body, err := tool.HTTPGet(ctx, c.DescriptorClient, location, c.UserAgent)
	if err != nil {
		tool.DefaultLogger.Debugf("Descriptor fetch %s failed: %v", location, err)
		return types.ProbeResult{Err: classifyTransportErr(err)}
	}
	d, err := ParseDescriptor(body)
	if err != nil {
		tool.DefaultLogger.Debugf("Descriptor %s is not parseable: %v", location, err)
		return types.ProbeResult{Err: err}
	}
	return types.ProbeResult{OK: d.Mentions(c.Vendor), Info: d.Info()}
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

func classifyTransportErr(err error) error {
	if tool.IsTimeout(err) {
		return fmt.Errorf("%w: %v", types.ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", types.ErrTransportUnavailable, err)
}
