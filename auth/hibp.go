package auth

import (
	"bufio"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	hibpRangeURL  = "https://api.pwnedpasswords.com/range/"
	hibpUserAgent = "pwtrainer/0.1"
)

// HIBPResult captures whether a password hash suffix was found in the HIBP dataset.
type HIBPResult struct {
	Found bool
	Count int
}

// HIBPClient queries the Pwned Passwords range API.
type HIBPClient struct {
	BaseURL string
	HTTP    *http.Client
}

// DefaultHIBPClient talks to the public API with a short timeout.
func DefaultHIBPClient() *HIBPClient {
	return &HIBPClient{
		BaseURL: hibpRangeURL,
		HTTP:    &http.Client{Timeout: 4 * time.Second},
	}
}

// CheckHIBP queries the public API; see HIBPClient.Check.
func CheckHIBP(ctx context.Context, pw string) (HIBPResult, error) {
	return DefaultHIBPClient().Check(ctx, pw)
}

// Check looks pw up using k-anonymity: only the first five hex characters of
// SHA1(pw) leave the machine. Network and HTTP failures are returned wrapped;
// the caller decides whether to ignore them.
func (c *HIBPClient) Check(ctx context.Context, pw string) (HIBPResult, error) {
	var result HIBPResult

	sum := sha1.Sum([]byte(pw))
	hashHex := strings.ToUpper(hex.EncodeToString(sum[:]))
	prefix := hashHex[:5]
	suffix := hashHex[5:]

	base := c.BaseURL
	if base == "" {
		base = hibpRangeURL
	}
	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+prefix, nil)
	if err != nil {
		return result, fmt.Errorf("hibp request: %w", err)
	}
	req.Header.Set("User-Agent", hibpUserAgent)
	req.Header.Set("Add-Padding", "true")

	resp, err := client.Do(req)
	if err != nil {
		return result, fmt.Errorf("hibp query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return result, fmt.Errorf("hibp query: unexpected status %s", resp.Status)
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		lineSuffix, countStr, ok := strings.Cut(strings.TrimSpace(scanner.Text()), ":")
		if !ok || !strings.EqualFold(lineSuffix, suffix) {
			continue
		}

		count, err := strconv.Atoi(strings.TrimSpace(countStr))
		if err != nil {
			return result, fmt.Errorf("hibp parse count: %w", err)
		}
		// Padding entries carry a zero count.
		if count == 0 {
			continue
		}

		result.Found = true
		result.Count = count
		return result, nil
	}

	if err := scanner.Err(); err != nil {
		return result, fmt.Errorf("hibp read response: %w", err)
	}

	return result, nil
}
