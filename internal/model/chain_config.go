package model

// NativeToken describes the gas token of a rollup chain.
type NativeToken struct {
	Name     string `json:"name" validate:"required"`
	Symbol   string `json:"symbol" validate:"required"`
	Decimals int    `json:"decimals" validate:"gt=0"`
}

// ChainParams holds the nested runtime parameters of a chain configuration.
type ChainParams struct {
	ChainName    string      `json:"chainName" validate:"required"`
	NativeToken  NativeToken `json:"nativeToken" validate:"required"`
	SequencerURL string      `json:"sequencerUrl" validate:"omitempty,url"`
	BlockTime    int         `json:"blockTime" validate:"gt=0"`
	GasLimit     int         `json:"gasLimit" validate:"gt=0"`
}

// ChainConfigDraft is the L3 chain descriptor synthesized from a user
// utterance. Chain IDs for L3s live in the 412346-412999 range.
type ChainConfigDraft struct {
	Name        string      `json:"name" validate:"required"`
	ChainID     int64       `json:"chainId" validate:"gte=412346,lte=412999"`
	ParentChain string      `json:"parentChain" validate:"required,oneof=arbitrum-sepolia arbitrum-one arbitrum-nova"`
	Owner       string      `json:"owner" validate:"required,eth_addr"`
	Validators  []string    `json:"validators" validate:"required,min=1,dive,eth_addr"`
	ChainConfig ChainParams `json:"chainConfig"`
}

// SynthesisResult is the outcome of one synthesis request. Soft failures
// (unusable model output) come back with Success=false and a guidance
// message; Config is only set on success.
type SynthesisResult struct {
	Success bool              `json:"success"`
	Config  *ChainConfigDraft `json:"config,omitempty"`
	Message string            `json:"message"`
}
