package tls

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	standardtls "crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGenerateSelfSignedCert(t *testing.T) {
	t.Parallel()
	r := require.New(t)

	cert, err := GenerateSelfSignedCert()
	r.NoError(err)
	r.NotNil(cert)

	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	r.NoError(err)

	r.Equal("localhost", leaf.Subject.CommonName)
	r.Contains(leaf.DNSNames, "localhost")

	var ips []string
	for _, ip := range leaf.IPAddresses {
		ips = append(ips, ip.String())
	}
	r.Contains(ips, "127.0.0.1")

	r.InDelta(float64(365*24*time.Hour), float64(leaf.NotAfter.Sub(leaf.NotBefore)), float64(time.Hour))

	ecKey, ok := leaf.PublicKey.(*ecdsa.PublicKey)
	r.True(ok, "public key is not ECDSA")
	r.Equal(elliptic.P256(), ecKey.Curve)

	r.Equal(leaf.Subject.CommonName, leaf.Issuer.CommonName)
}

func TestLoadOrGenerate_SelfSigned(t *testing.T) {
	t.Parallel()
	r := require.New(t)

	cfg, err := LoadOrGenerate("", "", "")
	r.NoError(err)
	r.Len(cfg.Certificates, 1)
	r.Equal(uint16(standardtls.VersionTLS12), cfg.MinVersion)
	r.Equal(standardtls.NoClientCert, cfg.ClientAuth)
	r.Nil(cfg.ClientCAs)
}

// writeCert stores a generated certificate and its key as PEM files.
func writeCert(t *testing.T, dir string) (certFile, keyFile string) {
	t.Helper()

	cert, err := GenerateSelfSignedCert()
	require.NoError(t, err)

	keyDER, err := x509.MarshalECPrivateKey(cert.PrivateKey.(*ecdsa.PrivateKey))
	require.NoError(t, err)

	certFile = filepath.Join(dir, "cert.pem")
	keyFile = filepath.Join(dir, "key.pem")

	require.NoError(t, os.WriteFile(certFile,
		pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Certificate[0]}), 0o600))
	require.NoError(t, os.WriteFile(keyFile,
		pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}), 0o600))

	return certFile, keyFile
}

func TestLoadOrGenerate_FromFiles(t *testing.T) {
	t.Parallel()
	r := require.New(t)

	certFile, keyFile := writeCert(t, t.TempDir())

	cfg, err := LoadOrGenerate(certFile, keyFile, "")
	r.NoError(err)
	r.Len(cfg.Certificates, 1)
}

func TestLoadOrGenerate_ClientCA(t *testing.T) {
	t.Parallel()
	r := require.New(t)

	caFile, _ := writeCert(t, t.TempDir())

	cfg, err := LoadOrGenerate("", "", caFile)
	r.NoError(err)
	r.Equal(standardtls.RequireAndVerifyClientCert, cfg.ClientAuth)
	r.NotNil(cfg.ClientCAs)
}

func TestLoadOrGenerate_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	notPEM := filepath.Join(dir, "ca.pem")
	require.NoError(t, os.WriteFile(notPEM, []byte("not a certificate"), 0o600))

	tests := []struct {
		name                      string
		certFile, keyFile, caFile string
		wantErr                   error
	}{
		{name: "missing key pair", certFile: "/nonexistent/cert.pem", keyFile: "/nonexistent/key.pem"},
		{name: "missing client CA", caFile: "/nonexistent/ca.pem"},
		{name: "client CA without certificates", caFile: notPEM, wantErr: ErrNoCACertificates},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := LoadOrGenerate(tt.certFile, tt.keyFile, tt.caFile)
			require.Error(t, err)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}
