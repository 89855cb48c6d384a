package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"app/internal/model"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrIncompleteConfig is returned when the model omitted one of the
	// required fields (name, chainId, parentChain).
	ErrIncompleteConfig = errors.New("incomplete configuration")
	// ErrInvalidConfig is returned when a present field violates a
	// data-model invariant (chain-id range, address format, positive
	// block time / gas limit).
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Defaults applied during normalization when the model leaves a field out.
const (
	defaultBlockTime    = 2
	defaultGasLimit     = 30000000
	defaultOwnerAddress = "0x0000000000000000000000000000000000000000"
)

var defaultValidators = []string{
	"0x1111111111111111111111111111111111111111",
	"0x2222222222222222222222222222222222222222",
	"0x3333333333333333333333333333333333333333",
}

// flexInt tolerates the model emitting numbers as JSON strings ("412350")
// as well as plain numbers. Unparseable values are left at zero rather
// than failing the whole payload; the required-field check catches them.
type flexInt int64

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexInt(n)
	return nil
}

type rawNativeToken struct {
	Name     string  `json:"name"`
	Symbol   string  `json:"symbol"`
	Decimals flexInt `json:"decimals"`
}

type rawChainParams struct {
	ChainName    string          `json:"chainName"`
	NativeToken  *rawNativeToken `json:"nativeToken"`
	SequencerURL string          `json:"sequencerUrl"`
	BlockTime    flexInt         `json:"blockTime"`
	GasLimit     flexInt         `json:"gasLimit"`
}

type rawChainConfig struct {
	Name        string          `json:"name"`
	ChainID     flexInt         `json:"chainId"`
	ParentChain string          `json:"parentChain"`
	Owner       string          `json:"owner"`
	Validators  []string        `json:"validators"`
	ChainConfig *rawChainParams `json:"chainConfig"`
}

// ConfigValidator turns an extracted raw payload into a ChainConfigDraft,
// applying domain defaults and rejecting incomplete or out-of-range
// results before they can reach anything downstream.
type ConfigValidator struct {
	validate *validator.Validate
}

// NewConfigValidator creates a ConfigValidator.
func NewConfigValidator(validate *validator.Validate) *ConfigValidator {
	return &ConfigValidator{validate: validate}
}

// ValidateAndNormalize parses the extracted payload, checks the required
// fields, fills in defaults and enforces the data-model invariants.
func (v *ConfigValidator) ValidateAndNormalize(data []byte) (*model.ChainConfigDraft, error) {
	var raw rawChainConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIncompleteConfig, err)
	}

	// Required fields: absence means the model did not produce a usable
	// configuration and the user should rephrase.
	if raw.Name == "" || raw.ChainID == 0 || raw.ParentChain == "" {
		return nil, ErrIncompleteConfig
	}

	draft := &model.ChainConfigDraft{
		Name:        raw.Name,
		ChainID:     int64(raw.ChainID),
		ParentChain: raw.ParentChain,
		Owner:       raw.Owner,
		Validators:  raw.Validators,
	}

	// Best-effort normalization: missing optional fields get domain
	// defaults instead of failing the request.
	if draft.Owner == "" {
		draft.Owner = defaultOwnerAddress
	}
	if len(draft.Validators) == 0 {
		draft.Validators = append([]string(nil), defaultValidators...)
	}

	params := model.ChainParams{
		ChainName: draft.Name,
		NativeToken: model.NativeToken{
			Name:     "Ether",
			Symbol:   "ETH",
			Decimals: 18,
		},
		BlockTime: defaultBlockTime,
		GasLimit:  defaultGasLimit,
	}
	if raw.ChainConfig != nil {
		if raw.ChainConfig.ChainName != "" {
			params.ChainName = raw.ChainConfig.ChainName
		}
		if raw.ChainConfig.NativeToken != nil {
			params.NativeToken = model.NativeToken{
				Name:     raw.ChainConfig.NativeToken.Name,
				Symbol:   raw.ChainConfig.NativeToken.Symbol,
				Decimals: int(raw.ChainConfig.NativeToken.Decimals),
			}
		}
		params.SequencerURL = raw.ChainConfig.SequencerURL
		if raw.ChainConfig.BlockTime != 0 {
			params.BlockTime = int(raw.ChainConfig.BlockTime)
		}
		if raw.ChainConfig.GasLimit != 0 {
			params.GasLimit = int(raw.ChainConfig.GasLimit)
		}
	}
	if params.SequencerURL == "" {
		params.SequencerURL = fmt.Sprintf("https://sequencer-%s.example.com", draft.Name)
	}
	draft.ChainConfig = params

	// Hard validation of the data-model invariants the generator was
	// instructed to uphold. Model output is untrusted; instructed is not
	// enforced.
	if err := v.validate.Struct(draft); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return draft, nil
}
