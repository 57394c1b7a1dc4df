package resolve

import (
	"fmt"
	"sync"
	"time"

	"github.com/miekg/dns"
)

// Resolver maps a host name to a server address. The engine uses it to
// enrich stored transactions (HAR serverIPAddress) off the capture path.
type Resolver interface {
	LookupAddr(host string) (string, error)
}

// DNSResolver resolves A records against a configured DNS server and
// caches answers for the lifetime of the process. Lookups are bounded
// by a short timeout so a slow resolver can never hold up a caller.
type DNSResolver struct {
	server  string
	client  *dns.Client
	mu      sync.RWMutex
	cache   map[string]string
	timeout time.Duration
}

// NewDNS creates a resolver against server (host:port). An empty server
// selects a common public resolver.
func NewDNS(server string, timeout time.Duration) *DNSResolver {
	if server == "" {
		server = "1.1.1.1:53"
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &DNSResolver{
		server:  server,
		client:  &dns.Client{Timeout: timeout},
		cache:   make(map[string]string),
		timeout: timeout,
	}
}

// LookupAddr returns the first A record for host.
func (r *DNSResolver) LookupAddr(host string) (string, error) {
	if host == "" {
		return "", fmt.Errorf("empty host")
	}

	r.mu.RLock()
	addr, ok := r.cache[host]
	r.mu.RUnlock()
	if ok {
		return addr, nil
	}

	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(host), dns.TypeA)
	msg.RecursionDesired = true

	reply, _, err := r.client.Exchange(msg, r.server)
	if err != nil {
		return "", fmt.Errorf("dns lookup for %s failed: %w", host, err)
	}
	if reply.Rcode != dns.RcodeSuccess {
		return "", fmt.Errorf("dns lookup for %s: rcode %d", host, reply.Rcode)
	}
	for _, rr := range reply.Answer {
		if a, ok := rr.(*dns.A); ok {
			addr := a.A.String()
			r.mu.Lock()
			r.cache[host] = addr
			r.mu.Unlock()
			return addr, nil
		}
	}
	return "", fmt.Errorf("no A record for %s", host)
}

// Static is a fixed host to address table. Useful in tests and for
// deployments that pin addresses.
type Static map[string]string

// LookupAddr returns the configured address for host.
func (s Static) LookupAddr(host string) (string, error) {
	addr, ok := s[host]
	if !ok {
		return "", fmt.Errorf("no address for %s", host)
	}
	return addr, nil
}
