// Package ftpfetch retrieves supplier price files over FTP. Every download
// attempt uses a fresh connection; FTP servers in this space drop control
// connections without notice and a stale session is worth less than a
// reconnect.
package ftpfetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"

	"catalog_sync_backend/internal/credentials"
	"catalog_sync_backend/platform/apperr"
	"catalog_sync_backend/platform/logger"
)

const (
	defaultPort       = "21"
	defaultMaxRetries = 2
	defaultTimeout    = 30 * time.Second
	testConnTimeout   = 10 * time.Second
	baseBackoff       = time.Second
	maxBackoff        = 10 * time.Second
)

// RemoteFile describes one listed file on the supplier's FTP server.
type RemoteFile struct {
	Name    string
	Size    uint64
	ModTime time.Time
}

// conn is the subset of the FTP session the fetcher uses. The production
// implementation wraps *ftp.ServerConn; tests substitute fakes.
type conn interface {
	List(dir string) ([]*ftp.Entry, error)
	Retr(remotePath string) (io.ReadCloser, error)
	Quit() error
}

// dialFunc opens and authenticates an FTP session.
type dialFunc func(ctx context.Context, addr, user, password string, timeout time.Duration) (conn, error)

type serverConn struct {
	*ftp.ServerConn
}

func (c serverConn) Retr(remotePath string) (io.ReadCloser, error) {
	return c.ServerConn.Retr(remotePath)
}

func dialFTP(ctx context.Context, addr, user, password string, timeout time.Duration) (conn, error) {
	c, err := ftp.Dial(addr, ftp.DialWithContext(ctx), ftp.DialWithTimeout(timeout))
	if err != nil {
		return nil, err
	}
	if err := c.Login(user, password); err != nil {
		c.Quit()
		return nil, err
	}
	return serverConn{c}, nil
}

// Fetcher downloads price files from supplier FTP servers with bounded
// retries and exponential backoff.
type Fetcher struct {
	dial       dialFunc
	timeout    time.Duration
	maxRetries int
	log        *logger.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the per-connection timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) { f.timeout = d }
}

// WithMaxRetries sets how many extra attempts follow a failed download.
func WithMaxRetries(n int) Option {
	return func(f *Fetcher) { f.maxRetries = n }
}

// NewFetcher creates a fetcher with the default timeout and retry budget.
func NewFetcher(log *logger.Logger, opts ...Option) *Fetcher {
	f := &Fetcher{
		dial:       dialFTP,
		timeout:    defaultTimeout,
		maxRetries: defaultMaxRetries,
		log:        log,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// address validates the credentials and builds the dial address. The
// endpoint carries host or host:port; the port defaults to 21.
func address(creds credentials.Credentials) (string, error) {
	host := strings.TrimSpace(creds.APIEndpoint)
	if host == "" {
		return "", apperr.Config("ftp host is not configured")
	}
	if creds.Username == "" || creds.Password == "" {
		return "", apperr.Config("ftp credentials are incomplete")
	}
	if _, _, err := net.SplitHostPort(host); err != nil {
		host = net.JoinHostPort(host, defaultPort)
	}
	return host, nil
}

// ListFiles lists the remote directory and returns the entries matching
// the glob pattern, newest first. Directories are excluded. An empty
// pattern matches everything.
func (f *Fetcher) ListFiles(ctx context.Context, creds credentials.Credentials, remoteDir, pattern string) ([]RemoteFile, error) {
	addr, err := address(creds)
	if err != nil {
		return nil, err
	}

	c, err := f.dial(ctx, addr, creds.Username, creds.Password, f.timeout)
	if err != nil {
		return nil, classify("ftpfetch.ListFiles", err)
	}
	defer c.Quit()

	entries, err := c.List(remoteDir)
	if err != nil {
		return nil, classify("ftpfetch.ListFiles", err)
	}

	var files []RemoteFile
	for _, entry := range entries {
		if entry.Type != ftp.EntryTypeFile {
			continue
		}
		if pattern != "" {
			matched, err := path.Match(pattern, entry.Name)
			if err != nil {
				return nil, apperr.Config(fmt.Sprintf("invalid file pattern %q", pattern))
			}
			if !matched {
				continue
			}
		}
		files = append(files, RemoteFile{Name: entry.Name, Size: entry.Size, ModTime: entry.Time})
	}

	sort.SliceStable(files, func(i, j int) bool { return files[i].ModTime.After(files[j].ModTime) })
	return files, nil
}

// DownloadFile retrieves one remote file. Each attempt dials a fresh
// connection; failures back off exponentially from one second, capped at
// ten. The returned bytes are raw, the adapters own the decoding.
func (f *Fetcher) DownloadFile(ctx context.Context, creds credentials.Credentials, remotePath string) ([]byte, error) {
	addr, err := address(creds)
	if err != nil {
		return nil, err
	}

	attempts := f.maxRetries + 1
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		data, err := f.downloadOnce(ctx, addr, creds, remotePath)
		if err == nil {
			return data, nil
		}
		lastErr = classify("ftpfetch.DownloadFile", err)

		if attempt == attempts || !retryable(lastErr) {
			break
		}

		wait := backoff(attempt)
		f.log.RetryAttempt("ftpfetch.DownloadFile", attempt, wait.Milliseconds(), err)
		select {
		case <-ctx.Done():
			return nil, apperr.Timeout("ftp download canceled", ctx.Err())
		case <-time.After(wait):
		}
	}
	return nil, lastErr
}

func (f *Fetcher) downloadOnce(ctx context.Context, addr string, creds credentials.Credentials, remotePath string) ([]byte, error) {
	c, err := f.dial(ctx, addr, creds.Username, creds.Password, f.timeout)
	if err != nil {
		return nil, err
	}
	defer c.Quit()

	r, err := c.Retr(remotePath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return io.ReadAll(r)
}

// DownloadLatest lists the directory and downloads the newest matching
// file. No matching file is not an error: both returns are nil.
func (f *Fetcher) DownloadLatest(ctx context.Context, creds credentials.Credentials, remoteDir, pattern string) (*RemoteFile, []byte, error) {
	files, err := f.ListFiles(ctx, creds, remoteDir, pattern)
	if err != nil {
		return nil, nil, err
	}
	if len(files) == 0 {
		return nil, nil, nil
	}

	latest := files[0]
	data, err := f.DownloadFile(ctx, creds, path.Join(remoteDir, latest.Name))
	if err != nil {
		return nil, nil, err
	}
	return &latest, data, nil
}

// TestConnection verifies that the server accepts the credentials. The
// probe uses its own short timeout regardless of the fetcher's setting.
func (f *Fetcher) TestConnection(ctx context.Context, creds credentials.Credentials) error {
	addr, err := address(creds)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, testConnTimeout)
	defer cancel()

	c, err := f.dial(ctx, addr, creds.Username, creds.Password, testConnTimeout)
	if err != nil {
		return classify("ftpfetch.TestConnection", err)
	}
	return c.Quit()
}

func backoff(attempt int) time.Duration {
	wait := baseBackoff << (attempt - 1)
	if wait > maxBackoff {
		return maxBackoff
	}
	return wait
}

// retryable expects a classified error. Timeouts surface immediately as
// their own failure mode; config errors and cancellations cannot be
// retried away.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	if apperr.IsTimeout(err) {
		return false
	}
	return apperr.GetKind(err) != apperr.KindConfig
}

func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.Timeout(fmt.Sprintf("%s timed out", op), err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return apperr.Timeout(fmt.Sprintf("%s timed out", op), err)
	}
	return apperr.Transient(fmt.Sprintf("%s failed", op), err)
}
