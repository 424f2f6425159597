// Package internal holds an in-process SSH server with the sftp subsystem,
// serving the local filesystem, for tests of the sftp transfer session.
package internal

import (
	"crypto/ed25519"
	"crypto/rand"
	"net"
	"sync"

	"github.com/pkg/errors"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
	"golang.org/x/sync/errgroup"
)

var (
	TestUser     = "deployer"
	TestPassword = "secret"
)

// TestServer is a running SSH+SFTP server
type TestServer struct {
	Addr string

	hostKey  ssh.Signer
	listener net.Listener
	g        errgroup.Group

	mu     sync.Mutex
	conns  []net.Conn
	closed bool
}

// SetupTestSSH starts a server on a random local port accepting
// TestUser/TestPassword
func SetupTestSSH() (*TestServer, error) {
	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, errors.Wrap(err, "host key")
	}

	hostKey, err := ssh.NewSignerFromKey(key)
	if err != nil {
		return nil, errors.Wrap(err, "host key signer")
	}

	// Open listen socket
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, errors.Wrap(err, "listen")
	}

	s := &TestServer{
		Addr:     listener.Addr().String(),
		hostKey:  hostKey,
		listener: listener,
	}

	s.g.Go(s.serve)
	return s, nil
}

// KnownHostsLine returns the known_hosts entry of the server
func (s *TestServer) KnownHostsLine() string {
	return knownhosts.Line([]string{s.Addr}, s.hostKey.PublicKey())
}

// Close stops the server and drops every open connection
func (s *TestServer) Close() error {
	s.mu.Lock()
	s.closed = true
	for _, c := range s.conns {
		c.Close()
	}
	s.mu.Unlock()

	s.listener.Close()
	return s.g.Wait()
}

func (s *TestServer) serve() error {
	config := s.serverConfig()

	for {
		// Accept TCP connection
		conn, err := s.listener.Accept()
		if err != nil {
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.closed {
				return nil
			}
			return err
		}

		s.mu.Lock()
		s.conns = append(s.conns, conn)
		s.mu.Unlock()

		s.g.Go(func() error {
			// Perform SSH handshake
			_, newChannels, reqs, err := ssh.NewServerConn(conn, config)
			if err != nil {
				conn.Close()
				return nil
			}
			go ssh.DiscardRequests(reqs)

			handleChannels(newChannels)
			return nil
		})
	}
}

func (s *TestServer) serverConfig() *ssh.ServerConfig {
	config := &ssh.ServerConfig{
		PasswordCallback: func(c ssh.ConnMetadata, pass []byte) (*ssh.Permissions, error) {
			if c.User() == TestUser && string(pass) == TestPassword {
				return nil, nil
			}
			return nil, errors.Errorf("password rejected for %s", c.User())
		},
	}
	config.AddHostKey(s.hostKey)
	return config
}

func handleChannels(channels <-chan ssh.NewChannel) {
	for newChannel := range channels {
		if newChannel.ChannelType() != "session" {
			newChannel.Reject(ssh.UnknownChannelType, "unknown channel type")
			continue
		}
		go handleChannel(newChannel)
	}
}

func handleChannel(newChannel ssh.NewChannel) {
	channel, requests, err := newChannel.Accept()
	if err != nil {
		return
	}

	for req := range requests {
		switch req.Type {
		case "subsystem":
			// payload is a length prefixed subsystem name
			ok := len(req.Payload) > 4 && string(req.Payload[4:]) == "sftp"
			req.Reply(ok, nil)
			if !ok {
				continue
			}

			go func() {
				defer channel.Close() // SSH_MSG_CHANNEL_CLOSE
				sftpServer, err := sftp.NewServer(channel)
				if err != nil {
					return
				}
				defer sftpServer.Close()
				_ = sftpServer.Serve()
			}()

		default:
			if req.WantReply {
				_ = req.Reply(false, nil)
			}
		}
	}
}
