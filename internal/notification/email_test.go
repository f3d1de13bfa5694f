package notification

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"
)

// smtpScript is a single-connection plaintext SMTP server that records
// every command verb the client issues.
type smtpScript struct {
	ln       net.Listener
	starttls bool
	done     chan struct{}

	mu       sync.Mutex
	commands []string
	body     strings.Builder
}

func startSMTPScript(t *testing.T, starttls bool) *smtpScript {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	s := &smtpScript{ln: ln, starttls: starttls, done: make(chan struct{})}
	go s.serve()
	t.Cleanup(func() {
		ln.Close()
		<-s.done
	})
	return s
}

func (s *smtpScript) port() int {
	return s.ln.Addr().(*net.TCPAddr).Port
}

func (s *smtpScript) saw(verb string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.commands {
		if c == verb {
			return true
		}
	}
	return false
}

func (s *smtpScript) message() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.body.String()
}

func (s *smtpScript) serve() {
	defer close(s.done)
	conn, err := s.ln.Accept()
	if err != nil {
		return
	}
	defer conn.Close()

	fmt.Fprintf(conn, "220 test.local ready\r\n")
	r := bufio.NewReader(conn)
	inData := false
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimRight(line, "\r\n")

		if inData {
			if line == "." {
				inData = false
				fmt.Fprintf(conn, "250 queued\r\n")
			} else {
				s.mu.Lock()
				s.body.WriteString(line + "\n")
				s.mu.Unlock()
			}
			continue
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		verb := strings.ToUpper(fields[0])
		s.mu.Lock()
		s.commands = append(s.commands, verb)
		s.mu.Unlock()

		switch verb {
		case "EHLO", "HELO":
			if s.starttls {
				fmt.Fprintf(conn, "250-test.local\r\n250 STARTTLS\r\n")
			} else {
				fmt.Fprintf(conn, "250 test.local\r\n")
			}
		case "STARTTLS":
			// Acknowledge the upgrade but keep speaking plaintext; the
			// client's TLS handshake then fails and the send aborts.
			fmt.Fprintf(conn, "220 ready to start TLS\r\n")
			return
		case "MAIL", "RCPT":
			fmt.Fprintf(conn, "250 ok\r\n")
		case "DATA":
			fmt.Fprintf(conn, "354 end with .\r\n")
			inData = true
		case "QUIT":
			fmt.Fprintf(conn, "221 bye\r\n")
			return
		default:
			fmt.Fprintf(conn, "250 ok\r\n")
		}
	}
}

func TestEmailService_DeliversOverPlainRelay(t *testing.T) {
	script := startSMTPScript(t, false)

	svc := NewEmailService(EmailConfig{
		Host:     "127.0.0.1",
		Port:     script.port(),
		From:     "noreply@instasora.com",
		FromName: "InstaSora",
	})

	verifyURL := "https://app.example.com/verify?token=tok-1"
	if err := svc.SendVerificationEmail("jane@example.com", verifyURL); err != nil {
		t.Fatalf("SendVerificationEmail() = %v", err)
	}

	msg := script.message()
	if !strings.Contains(msg, "Subject: Email Verification") {
		t.Errorf("message missing subject:\n%s", msg)
	}
	if !strings.Contains(msg, verifyURL) {
		t.Errorf("message missing verification link:\n%s", msg)
	}
	if !strings.Contains(msg, "From: InstaSora <noreply@instasora.com>") {
		t.Errorf("message missing display-name sender:\n%s", msg)
	}
	if script.saw("STARTTLS") {
		t.Error("client issued STARTTLS against a server that never advertised it")
	}
	if script.saw("AUTH") {
		t.Error("client issued AUTH without configured credentials")
	}
}

func TestEmailService_UpgradesBeforeAuth(t *testing.T) {
	script := startSMTPScript(t, true)

	svc := NewEmailService(EmailConfig{
		Host:     "127.0.0.1",
		Port:     script.port(),
		User:     "mailer",
		Password: "s3cret",
		From:     "noreply@instasora.com",
	})

	// The scripted server cannot complete the handshake, so the send must
	// fail rather than fall back to a plaintext AUTH.
	err := svc.SendPasswordResetEmail("jane@example.com", "https://app.example.com/reset?token=tok-2")
	if err == nil {
		t.Fatal("send succeeded over a broken TLS upgrade")
	}
	if !script.saw("STARTTLS") {
		t.Error("client never issued STARTTLS on an advertising server")
	}
	if script.saw("AUTH") {
		t.Error("credentials sent before the TLS upgrade")
	}
}
