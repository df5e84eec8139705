// Package delegation exposes the NS and DS records a registry publishes
// for a domain as libdns records.
package delegation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/libdns/libdns"
	"github.com/miekg/dns"
	"go.uber.org/zap"

	"github.com/rsclarke/goepp/internal/dnssec"
	"github.com/rsclarke/goepp/internal/domain"
	"github.com/rsclarke/goepp/internal/epp"
	"github.com/rsclarke/goepp/internal/logging"
)

var (
	_ libdns.RecordGetter   = (*Provider)(nil)
	_ libdns.RecordAppender = (*Provider)(nil)
	_ libdns.RecordDeleter  = (*Provider)(nil)
)

// Provider reads and changes a domain's delegation through domain info and
// update commands. Only NS and DS records at the zone apex are handled;
// other records are skipped.
type Provider struct {
	Domains *domain.Client
	// TTL is reported on returned records. Registries do not carry one.
	TTL time.Duration
	// Logger records applied changes; nil disables logging.
	Logger *zap.Logger
}

// GetRecords returns the nameservers and DS records of zone.
func (p *Provider) GetRecords(ctx context.Context, zone string) ([]libdns.Record, error) {
	info, err := p.info(ctx, zone)
	if err != nil {
		return nil, err
	}
	recs := make([]libdns.Record, 0, len(info.Nameservers)+len(info.DSData))
	for _, ns := range info.Nameservers {
		recs = append(recs, p.nsRecord(ns))
	}
	for _, ds := range info.DSData {
		recs = append(recs, p.dsRecord(zone, ds))
	}
	return recs, nil
}

// AppendRecords adds nameservers and DS records to zone and returns the
// records that were sent.
func (p *Provider) AppendRecords(ctx context.Context, zone string, recs []libdns.Record) ([]libdns.Record, error) {
	u := domain.Update{Name: zoneName(zone)}
	var applied []libdns.Record
	for _, r := range recs {
		rr := r.RR()
		if !atApex(zone, rr.Name) {
			continue
		}
		switch strings.ToUpper(rr.Type) {
		case "NS":
			u.AddNameservers = append(u.AddNameservers, hostName(rr.Data))
		case "DS":
			ds, err := dnssec.ParseDS(rr.Data)
			if err != nil {
				return nil, err
			}
			u.AddDS = append(u.AddDS, ds)
		default:
			continue
		}
		applied = append(applied, r)
	}
	if len(applied) == 0 {
		return nil, nil
	}
	if err := p.update(ctx, u); err != nil {
		return nil, err
	}
	return applied, nil
}

// DeleteRecords removes nameservers and DS records from zone. A DS record
// with empty data removes every DS record; an NS record with empty data
// removes every nameserver.
func (p *Provider) DeleteRecords(ctx context.Context, zone string, recs []libdns.Record) ([]libdns.Record, error) {
	u := domain.Update{Name: zoneName(zone)}
	var (
		applied []libdns.Record
		allNS   bool
	)
	for _, r := range recs {
		rr := r.RR()
		if !atApex(zone, rr.Name) {
			continue
		}
		switch strings.ToUpper(rr.Type) {
		case "NS":
			if rr.Data == "" {
				allNS = true
			} else {
				u.RemoveNameservers = append(u.RemoveNameservers, hostName(rr.Data))
			}
		case "DS":
			if rr.Data == "" {
				u.RemoveAllDS = true
				break
			}
			ds, err := dnssec.ParseDS(rr.Data)
			if err != nil {
				return nil, err
			}
			u.RemoveDS = append(u.RemoveDS, ds)
		default:
			continue
		}
		applied = append(applied, r)
	}
	if len(applied) == 0 {
		return nil, nil
	}
	if u.RemoveAllDS {
		u.RemoveDS = nil
	}
	if allNS {
		info, err := p.info(ctx, zone)
		if err != nil {
			return nil, err
		}
		u.RemoveNameservers = info.Nameservers
	}
	if err := p.update(ctx, u); err != nil {
		return nil, err
	}
	return applied, nil
}

func (p *Provider) info(ctx context.Context, zone string) (*epp.DomainInfo, error) {
	res, err := p.Domains.Info(ctx, zoneName(zone), "")
	if err != nil {
		return nil, err
	}
	if !res.Succeeded() {
		return nil, commandError("domain:info", res)
	}
	return res.Payload.(*epp.DomainInfo), nil
}

func (p *Provider) update(ctx context.Context, u domain.Update) error {
	res, err := p.Domains.Update(ctx, u)
	if err != nil {
		return err
	}
	if !res.Succeeded() {
		return commandError("domain:update", res)
	}
	if p.Logger != nil {
		p.Logger.Info("delegation updated",
			logging.Domain(u.Name),
			zap.Strings("add_ns", u.AddNameservers),
			zap.Strings("rem_ns", u.RemoveNameservers),
			zap.Int("add_ds", len(u.AddDS)),
			zap.Int("rem_ds", len(u.RemoveDS)),
			zap.Bool("rem_all_ds", u.RemoveAllDS),
		)
	}
	return nil
}

func (p *Provider) nsRecord(host string) libdns.NS {
	return libdns.NS{Name: "@", TTL: p.TTL, Target: dns.Fqdn(host)}
}

func (p *Provider) dsRecord(zone string, ds epp.DSRecord) libdns.RR {
	rr := dnssec.ToRR(zone, ds)
	return libdns.RR{
		Name: "@",
		TTL:  p.TTL,
		Type: "DS",
		Data: strings.TrimPrefix(rr.String(), rr.Hdr.String()),
	}
}

func commandError(command string, res *epp.Result) error {
	return &epp.CommandError{Command: command, Code: res.Code, Message: res.Message, Reason: res.Reason}
}

func zoneName(zone string) string {
	return strings.TrimSuffix(strings.ToLower(zone), ".")
}

func hostName(target string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(target)), ".")
}

func atApex(zone, name string) bool {
	return absoluteName(zone, name) == zoneName(zone)
}

func absoluteName(zone, name string) string {
	zone = zoneName(zone)
	name = strings.TrimSuffix(strings.ToLower(name), ".")
	if name == "" || name == "@" {
		return zone
	}
	if name == zone || strings.HasSuffix(name, "."+zone) {
		return name
	}
	return fmt.Sprintf("%s.%s", name, zone)
}
