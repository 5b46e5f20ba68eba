package hostinfo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/miekg/dns"
)

// Info is what the resolver told us about one probed host. A CNAME into a
// CDN's domain is the usual sign that the host sits behind that CDN.
type Info struct {
	Host   string
	CNAMEs []string
	Addrs  []string
	RTT    time.Duration
}

func (i Info) String() string {
	var sb strings.Builder
	sb.WriteString(i.Host)
	for _, c := range i.CNAMEs {
		sb.WriteString(" -> ")
		sb.WriteString(c)
	}
	if len(i.Addrs) > 0 {
		fmt.Fprintf(&sb, " [%s]", strings.Join(i.Addrs, ", "))
	}
	fmt.Fprintf(&sb, " (%s)", i.RTT.Round(time.Millisecond))
	return sb.String()
}

type Inspector struct {
	client   *dns.Client
	resolver string
}

func NewInspector(resolver string, timeout time.Duration) *Inspector {
	return &Inspector{
		client:   &dns.Client{Timeout: timeout},
		resolver: resolver,
	}
}

// Inspect asks the resolver for the A records of host and collects the
// CNAME chain that leads to them.
func (in *Inspector) Inspect(ctx context.Context, host string) (Info, error) {
	info := Info{Host: host}

	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(host), dns.TypeA)
	msg.RecursionDesired = true

	resp, rtt, err := in.client.ExchangeContext(ctx, msg, in.resolver)
	if err != nil {
		return info, fmt.Errorf("lookup %s via %s: %w", host, in.resolver, err)
	}
	info.RTT = rtt
	if resp.Rcode != dns.RcodeSuccess {
		return info, fmt.Errorf("lookup %s via %s: %s", host, in.resolver, dns.RcodeToString[resp.Rcode])
	}

	for _, ans := range resp.Answer {
		switch rr := ans.(type) {
		case *dns.CNAME:
			info.CNAMEs = append(info.CNAMEs, strings.TrimSuffix(rr.Target, "."))
		case *dns.A:
			info.Addrs = append(info.Addrs, rr.A.String())
		}
	}
	return info, nil
}
