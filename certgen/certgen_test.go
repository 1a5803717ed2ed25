package certgen_test

import (
	"testing"
	"time"

	"github.com/lhamowski/luxnet/certgen"
)

func TestGenerateSelfSignedProducesUsableTLSConfigs(t *testing.T) {
	ss, err := certgen.GenerateSelfSigned("luxnet-test", []string{"127.0.0.1", "localhost"}, time.Hour)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if len(ss.CertPEM) == 0 || len(ss.KeyPEM) == 0 {
		t.Fatal("expected non-empty PEM material")
	}

	if _, err := certgen.ServerTLSConfig(ss); err != nil {
		t.Fatalf("server config failed: %v", err)
	}
	if _, err := certgen.ClientTrustConfig(ss, "localhost"); err != nil {
		t.Fatalf("client config failed: %v", err)
	}
}
