package verify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/ethereum/go-ethereum/common"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	ErrMissingApiKey      = errors.New("verify: missing explorer api key")
	ErrVerificationFailed = errors.New("verify: verification failed")
	ErrPollTimeout        = errors.New("verify: verification still pending")
)

const (
	statusOk        = "1"
	alreadyVerified = "already verified"
	pending         = "pending in queue"
	passed          = "pass - verified"
)

// Service publishes contract source to an Etherscan compatible explorer.
type Service interface {
	Verify(ctx context.Context, address common.Address, contractName string, args []string) error
}

type Options struct {
	Url             string
	ApiKey          string
	Timeout         int
	PollInterval    time.Duration
	PollAttempts    int
	CompilerVersion string
	Sources         map[string]string
}

type service struct {
	opts   Options
	client *retryablehttp.Client
}

type explorerResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Result  string `json:"result"`
}

func NewService(opts Options) (Service, error) {
	if opts.ApiKey == "" {
		return nil, ErrMissingApiKey
	}
	if opts.PollAttempts <= 0 {
		opts.PollAttempts = 1
	}

	client := retryablehttp.NewClient()
	client.Logger = nil
	client.RetryMax = 3
	client.HTTPClient.Timeout = time.Duration(opts.Timeout) * time.Second

	return &service{opts: opts, client: client}, nil
}

// Verify submits the source and waits for the explorer's verdict. Args are
// the ABI encoded constructor arguments, one hex word each.
func (s *service) Verify(ctx context.Context, address common.Address, contractName string, args []string) error {
	zap.L().With(zap.String("address", address.Hex()), zap.String("contract", contractName)).Info("Verify: Verifying contract")

	form := url.Values{}
	form.Set("apikey", s.opts.ApiKey)
	form.Set("module", "contract")
	form.Set("action", "verifysourcecode")
	form.Set("contractaddress", address.Hex())
	form.Set("contractname", contractName)
	form.Set("sourceCode", s.opts.Sources[contractName])
	form.Set("codeformat", "solidity-single-file")
	form.Set("compilerversion", s.opts.CompilerVersion)
	form.Set("constructorArguements", encodeArgs(args))

	resp, err := s.post(ctx, form)
	if err != nil {
		return err
	}
	if isAlreadyVerified(resp) {
		zap.L().With(zap.String("address", address.Hex())).Info("Verify: Already verified")
		return nil
	}
	if resp.Status != statusOk {
		return fmt.Errorf("%w: %s", ErrVerificationFailed, resp.Result)
	}

	return s.poll(ctx, resp.Result)
}

func (s *service) poll(ctx context.Context, guid string) error {
	for attempt := 0; attempt < s.opts.PollAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.opts.PollInterval):
			}
		}

		query := url.Values{}
		query.Set("apikey", s.opts.ApiKey)
		query.Set("module", "contract")
		query.Set("action", "checkverifystatus")
		query.Set("guid", guid)

		resp, err := s.get(ctx, query)
		if err != nil {
			return err
		}

		result := strings.ToLower(resp.Result)
		switch {
		case isAlreadyVerified(resp), strings.HasPrefix(result, passed):
			zap.L().With(zap.String("guid", guid)).Info("Verify: Verified")
			return nil
		case strings.HasPrefix(result, pending):
			zap.L().With(zap.String("guid", guid), zap.Int("attempt", attempt)).Debug("Verify: Pending")
		default:
			return fmt.Errorf("%w: %s", ErrVerificationFailed, resp.Result)
		}
	}

	return fmt.Errorf("%w: guid %s", ErrPollTimeout, guid)
}

func (s *service) post(ctx context.Context, form url.Values) (*explorerResponse, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, s.opts.Url, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return s.do(req)
}

func (s *service) get(ctx context.Context, query url.Values) (*explorerResponse, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, s.opts.Url+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}

	return s.do(req)
}

func (s *service) do(req *retryablehttp.Request) (*explorerResponse, error) {
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		zap.L().With(zap.Error(err)).Warn("Verify: Explorer request failed")
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("verify: explorer returned %d: %s", resp.StatusCode, string(data))
	}

	var out explorerResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("verify: decode explorer response: %w", err)
	}

	return &out, nil
}

func isAlreadyVerified(resp *explorerResponse) bool {
	return strings.Contains(strings.ToLower(resp.Result), alreadyVerified)
}

func encodeArgs(args []string) string {
	var sb strings.Builder
	for _, arg := range args {
		sb.WriteString(strings.TrimPrefix(arg, "0x"))
	}
	return sb.String()
}
