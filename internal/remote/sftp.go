package remote

import (
	"context"
	"fmt"
	"net"
	"os"
	"path"
	"strconv"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// DialOptions holds what is needed to open an SFTP session.
type DialOptions struct {
	Host    string
	Port    int
	User    string
	KeyFile string
	// KnownHosts is a known_hosts file used to verify the server. When empty
	// any host key is accepted.
	KnownHosts string
	Timeout    time.Duration
}

// SFTPClient is a Client backed by github.com/pkg/sftp over an ssh connection.
type SFTPClient struct {
	sshClient  *ssh.Client
	sftpClient *sftp.Client
}

func (o DialOptions) clientConfig() (*ssh.ClientConfig, error) {
	key, err := os.ReadFile(o.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key file: %w", err)
	}
	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key file: %w", err)
	}

	hostKeyCallback := ssh.InsecureIgnoreHostKey()
	if o.KnownHosts != "" {
		hostKeyCallback, err = knownhosts.New(o.KnownHosts)
		if err != nil {
			return nil, fmt.Errorf("failed to load known hosts: %w", err)
		}
	}

	return &ssh.ClientConfig{
		User:            o.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: hostKeyCallback,
		Timeout:         o.Timeout,
	}, nil
}

// Dial connects and authenticates to the server and starts the sftp subsystem.
func Dial(ctx context.Context, o DialOptions) (*SFTPClient, error) {
	config, err := o.clientConfig()
	if err != nil {
		return nil, err
	}

	addr := net.JoinHostPort(o.Host, strconv.Itoa(o.Port))
	dialer := &net.Dialer{Timeout: o.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("couldn't connect ssh: %w", err)
	}
	if o.Timeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(o.Timeout))
	}
	c, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("couldn't connect ssh: %w", err)
	}
	_ = conn.SetDeadline(time.Time{})
	sshClient := ssh.NewClient(c, chans, reqs)

	sftpClient, err := sftp.NewClient(sshClient)
	if err != nil {
		_ = sshClient.Close()
		return nil, fmt.Errorf("couldn't initialise SFTP: %w", err)
	}

	return &SFTPClient{sshClient: sshClient, sftpClient: sftpClient}, nil
}

// NewSFTPClient wraps an existing sftp session. Close only closes the sftp
// session.
func NewSFTPClient(client *sftp.Client) *SFTPClient {
	return &SFTPClient{sftpClient: client}
}

func (c *SFTPClient) List(p string) ([]string, error) {
	infos, err := c.sftpClient.ReadDir(p)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name())
	}
	return names, nil
}

func (c *SFTPClient) ListWithAttrs(p string) ([]Entry, error) {
	infos, err := c.sftpClient.ReadDir(p)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(infos))
	for _, info := range infos {
		entries = append(entries, entryFromInfo(info))
	}
	return entries, nil
}

func (c *SFTPClient) Stat(p string) (Entry, error) {
	info, err := c.sftpClient.Stat(p)
	if err != nil {
		return Entry{}, err
	}
	e := entryFromInfo(info)
	e.Name = path.Base(p)
	return e, nil
}

func (c *SFTPClient) RemoveFile(p string) error {
	return c.sftpClient.Remove(p)
}

func (c *SFTPClient) RemoveDirectory(p string) error {
	return c.sftpClient.RemoveDirectory(p)
}

func (c *SFTPClient) Close() error {
	err := c.sftpClient.Close()
	if c.sshClient != nil {
		if sshErr := c.sshClient.Close(); err == nil {
			err = sshErr
		}
	}
	return err
}

func entryFromInfo(info os.FileInfo) Entry {
	return Entry{
		Name:    info.Name(),
		ModTime: info.ModTime(),
		IsDir:   info.IsDir(),
	}
}
