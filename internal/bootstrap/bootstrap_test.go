package bootstrap

import (
	"context"
	"errors"
	"testing"
	"time"

	"jagx-bot/internal/pairing/client"
	"jagx-bot/internal/pairing/domain"
)

type fakeClient struct {
	info        *client.Info
	describeErr error
	verifyErr   error
	verified    []string
}

func (f *fakeClient) Describe(context.Context) (*client.Info, error) {
	return f.info, f.describeErr
}

func (f *fakeClient) Verify(_ context.Context, code, phone string) (*client.VerifyResult, error) {
	f.verified = append(f.verified, code+"/"+phone)
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return &client.VerifyResult{Message: "Successfully paired!", UserPhone: phone, Token: "tok"}, nil
}

func (f *fakeClient) QRURL(info *client.Info) string {
	if info.QRPath == "" {
		return ""
	}
	return "http://pair" + info.QRPath
}

func TestPair_Success(t *testing.T) {
	fc := &fakeClient{info: &client.Info{Code: "JagX4821", ExpiresAt: time.Now().Add(time.Hour), QRPath: "/auto-pair-qr"}}
	p, err := Pair(context.Background(), fc, "1234567890", nil)
	if err != nil {
		t.Fatalf("Pair: %v", err)
	}
	if p.Code != "JagX4821" || p.Phone != "1234567890" || p.Token != "tok" {
		t.Errorf("Paired = %+v", p)
	}
	if len(fc.verified) != 1 || fc.verified[0] != "JagX4821/1234567890" {
		t.Errorf("verify calls = %v", fc.verified)
	}
}

func TestPair_Failures(t *testing.T) {
	valid := &client.Info{Code: "JagX4821"}
	testCases := []struct {
		name    string
		fc      *fakeClient
		wantErr error
		verify  bool
	}{
		{"authority down", &fakeClient{describeErr: client.ErrTransportUnavailable}, client.ErrTransportUnavailable, false},
		{"no code", &fakeClient{info: &client.Info{}}, domain.ErrNotFound, false},
		{"expired", &fakeClient{info: valid, verifyErr: domain.ErrExpired}, domain.ErrExpired, true},
		{"mismatch", &fakeClient{info: valid, verifyErr: domain.ErrMismatch}, domain.ErrMismatch, true},
		{"verify transport", &fakeClient{info: valid, verifyErr: client.ErrTransportUnavailable}, client.ErrTransportUnavailable, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := Pair(context.Background(), tc.fc, "1234567890", nil)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
			if p != nil {
				t.Error("no pairing should be returned on failure")
			}
			if called := len(tc.fc.verified) > 0; called != tc.verify {
				t.Errorf("verify called = %v, want %v", called, tc.verify)
			}
		})
	}
}
