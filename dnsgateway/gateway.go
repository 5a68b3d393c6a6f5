// Package dnsgateway answers DNS TXT queries from the on-chain registry.
//
// A query for <name>.<zone> resolves the address record of <name> and
// answers with a TXT record "a=<0x address>". A query for
// _owner.<name>.<zone> answers "owner=<0x address>". Unregistered names
// answer NXDOMAIN and lookup failures answer SERVFAIL.
package dnsgateway

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/miekg/dns"

	"github.com/ruteri/onchain-registrar/interfaces"
	"github.com/ruteri/onchain-registrar/registrar"
)

const (
	DefaultTTL     = 60
	DefaultTimeout = 5 * time.Second

	ownerLabel = "_owner."
)

var ErrNoZone = errors.New("no zone configured")

type Config struct {
	// Zone is the domain the gateway is authoritative for, e.g. "reg.example.".
	Zone       string
	ListenAddr string
	TTL        uint32
	Timeout    time.Duration
	Log        *slog.Logger
}

// Gateway is a dns.Handler backed by an interfaces.Registrar.
type Gateway struct {
	registrar interfaces.Registrar
	zone      string
	ttl       uint32
	timeout   time.Duration
	log       *slog.Logger

	servers []*dns.Server
	addr    string
}

func New(reg interfaces.Registrar, cfg Config) (*Gateway, error) {
	if cfg.Zone == "" {
		return nil, ErrNoZone
	}
	if cfg.TTL == 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	return &Gateway{
		registrar: reg,
		zone:      dns.CanonicalName(cfg.Zone),
		ttl:       cfg.TTL,
		timeout:   cfg.Timeout,
		log:       cfg.Log,
		addr:      cfg.ListenAddr,
	}, nil
}

// ServeDNS implements dns.Handler.
func (g *Gateway) ServeDNS(w dns.ResponseWriter, r *dns.Msg) {
	m := new(dns.Msg)
	m.SetReply(r)
	m.Authoritative = true

	if len(r.Question) != 1 {
		m.SetRcode(r, dns.RcodeFormatError)
		g.write(w, m)
		return
	}

	q := r.Question[0]
	qname := dns.CanonicalName(q.Name)
	if !dns.IsSubDomain(g.zone, qname) {
		m.SetRcode(r, dns.RcodeRefused)
		g.write(w, m)
		return
	}
	if qname == g.zone || (q.Qtype != dns.TypeTXT && q.Qtype != dns.TypeANY) {
		// NODATA
		g.write(w, m)
		return
	}

	label := strings.TrimSuffix(qname, "."+g.zone)

	ctx, cancel := context.WithTimeout(context.Background(), g.timeout)
	defer cancel()

	var (
		res    interfaces.ResolvedAddress
		prefix string
		err    error
	)
	if name, isOwner := strings.CutPrefix(label, ownerLabel); isOwner {
		prefix = "owner="
		res, err = g.registrar.Owner(ctx, name)
	} else {
		prefix = "a="
		res, err = g.registrar.Resolve(ctx, label, registrar.DefaultRecordType)
	}

	if err != nil {
		g.log.Error("DNS lookup failed", "qname", q.Name, "err", err)
		m.SetRcode(r, dns.RcodeServerFailure)
		g.write(w, m)
		return
	}

	addr, found := res.Value()
	if !found {
		m.SetRcode(r, dns.RcodeNameError)
		g.write(w, m)
		return
	}

	m.Answer = append(m.Answer, &dns.TXT{
		Hdr: dns.RR_Header{
			Name:   q.Name,
			Rrtype: dns.TypeTXT,
			Class:  dns.ClassINET,
			Ttl:    g.ttl,
		},
		Txt: []string{prefix + addr.Hex()},
	})
	g.write(w, m)
}

func (g *Gateway) write(w dns.ResponseWriter, m *dns.Msg) {
	if err := w.WriteMsg(m); err != nil {
		g.log.Debug("Failed to write DNS response", "err", err)
	}
}

// RunInBackground serves the zone on UDP and TCP.
func (g *Gateway) RunInBackground() {
	for _, network := range []string{"udp", "tcp"} {
		srv := &dns.Server{Addr: g.addr, Net: network, Handler: g}
		g.servers = append(g.servers, srv)
		go func() {
			g.log.Info("Starting DNS gateway", "listenAddress", g.addr, "net", network, "zone", g.zone)
			if err := srv.ListenAndServe(); err != nil {
				g.log.Error("DNS gateway failed", "net", network, "err", err)
			}
		}()
	}
}

func (g *Gateway) Shutdown(ctx context.Context) {
	for _, srv := range g.servers {
		if err := srv.ShutdownContext(ctx); err != nil {
			g.log.Error("DNS gateway shutdown failed", "net", srv.Net, "err", err)
		}
	}
	g.log.Info("DNS gateway stopped")
}
