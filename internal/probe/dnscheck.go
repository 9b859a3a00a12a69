package probe

import (
	"context"
	"errors"
	"net"
	"strings"
)

// DNS classes reported by CheckDNS.
const (
	DNSResolves    = "RESOLVES"
	DNSNXDomain    = "NXDOMAIN"
	DNSNoARecord   = "NO_A_RECORD"
	DNSServfail    = "SERVFAIL_or_TIMEOUT"
	DNSInvalidName = "INVALID_NAME"
)

type DNSStatus struct {
	Domain        string
	IPs           []net.IP
	HasNS         bool
	Class         string
	ResolverError string
}

// Resolver is the subset of *net.Resolver CheckDNS needs.
type Resolver interface {
	LookupIP(ctx context.Context, network, host string) ([]net.IP, error)
	LookupNS(ctx context.Context, name string) ([]*net.NS, error)
}

// CheckDNS classifies why a hostname may be unreachable.
func CheckDNS(ctx context.Context, r Resolver, domain string) DNSStatus {
	s := DNSStatus{Domain: strings.TrimSpace(domain)}
	if s.Domain == "" || strings.Contains(s.Domain, "://") || strings.ContainsAny(s.Domain, " /") {
		s.Class = DNSInvalidName
		return s
	}
	if r == nil {
		r = net.DefaultResolver
	}

	ips, err := r.LookupIP(ctx, "ip", s.Domain)
	if err == nil && len(ips) > 0 {
		s.IPs = ips
		s.Class = DNSResolves
		return s
	}
	if err != nil {
		s.ResolverError = err.Error()
		var de *net.DNSError
		if errors.As(err, &de) {
			switch {
			case de.IsNotFound:
				s.Class = DNSNXDomain
			case de.IsTemporary || de.Timeout():
				s.Class = DNSServfail
			}
		}
	}

	// a zone with nameservers but no address records
	if ns, err := r.LookupNS(ctx, s.Domain); err == nil && len(ns) > 0 {
		s.HasNS = true
		if s.Class == "" || s.Class == DNSNXDomain {
			s.Class = DNSNoARecord
		}
	}
	if s.Class == "" {
		if s.ResolverError != "" {
			s.Class = DNSServfail
		} else {
			s.Class = DNSNXDomain
		}
	}
	return s
}

// DNSDiagnoser wraps a Checker and, when a hostname target fails, appends
// the DNS class to the output so the log says why.
type DNSDiagnoser struct {
	Inner    Checker
	Resolver Resolver
}

func (d *DNSDiagnoser) Check(ctx context.Context, addr string) CheckResult {
	out := d.Inner.Check(ctx, addr)
	if out.Alive || net.ParseIP(strings.TrimSpace(addr)) != nil {
		return out
	}
	if ctx.Err() != nil {
		return out
	}
	dns := CheckDNS(ctx, d.Resolver, addr)
	if dns.Class == DNSResolves {
		return out
	}
	out.Output = strings.TrimSpace(out.Output + " dns=" + dns.Class)
	return out
}
