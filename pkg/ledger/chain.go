package ledger

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/intentswap/settler/pkg/logger"
	"github.com/intentswap/settler/pkg/models"
)

// intentsABI is the interface of the on-chain intents contract. Reads
// return the full intent tuple; create/cancel/fill are transactions
// whose sender supplies the cryptographic authorization the core does
// not construct itself.
const intentsABI = `[
	{
		"constant": true,
		"inputs": [{"name": "id", "type": "uint256"}],
		"name": "getIntent",
		"outputs": [
			{
				"name": "intent",
				"type": "tuple",
				"components": [
					{"name": "id", "type": "uint256"},
					{"name": "creator", "type": "string"},
					{"name": "intentType", "type": "uint8"},
					{"name": "tokenIn", "type": "string"},
					{"name": "tokenOut", "type": "string"},
					{"name": "amountIn", "type": "uint256"},
					{"name": "minAmountOut", "type": "uint256"},
					{"name": "deadline", "type": "uint256"},
					{"name": "solverFeeBps", "type": "uint256"},
					{"name": "status", "type": "uint8"},
					{"name": "amountOut", "type": "uint256"},
					{"name": "solver", "type": "string"},
					{"name": "createdAt", "type": "uint256"}
				]
			},
			{"name": "exists", "type": "bool"}
		],
		"payable": false,
		"stateMutability": "view",
		"type": "function"
	},
	{
		"constant": true,
		"inputs": [
			{"name": "offset", "type": "uint256"},
			{"name": "limit", "type": "uint256"}
		],
		"name": "listIntents",
		"outputs": [
			{
				"name": "page",
				"type": "tuple[]",
				"components": [
					{"name": "id", "type": "uint256"},
					{"name": "creator", "type": "string"},
					{"name": "intentType", "type": "uint8"},
					{"name": "tokenIn", "type": "string"},
					{"name": "tokenOut", "type": "string"},
					{"name": "amountIn", "type": "uint256"},
					{"name": "minAmountOut", "type": "uint256"},
					{"name": "deadline", "type": "uint256"},
					{"name": "solverFeeBps", "type": "uint256"},
					{"name": "status", "type": "uint8"},
					{"name": "amountOut", "type": "uint256"},
					{"name": "solver", "type": "string"},
					{"name": "createdAt", "type": "uint256"}
				]
			}
		],
		"payable": false,
		"stateMutability": "view",
		"type": "function"
	},
	{
		"constant": false,
		"inputs": [
			{"name": "intentType", "type": "uint8"},
			{"name": "tokenIn", "type": "string"},
			{"name": "tokenOut", "type": "string"},
			{"name": "amountIn", "type": "uint256"},
			{"name": "minAmountOut", "type": "uint256"},
			{"name": "deadline", "type": "uint256"},
			{"name": "solverFeeBps", "type": "uint256"}
		],
		"name": "createIntent",
		"outputs": [{"name": "id", "type": "uint256"}],
		"payable": false,
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"constant": false,
		"inputs": [{"name": "id", "type": "uint256"}],
		"name": "cancelIntent",
		"outputs": [],
		"payable": false,
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"constant": false,
		"inputs": [
			{"name": "id", "type": "uint256"},
			{"name": "quotedAmountOut", "type": "uint256"},
			{"name": "routeId", "type": "string"}
		],
		"name": "fillIntent",
		"outputs": [],
		"payable": false,
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`

// rawIntent mirrors the contract's intent tuple. Field order and
// names must match the ABI components for decoding.
type rawIntent struct {
	Id           *big.Int
	Creator      string
	IntentType   uint8
	TokenIn      string
	TokenOut     string
	AmountIn     *big.Int
	MinAmountOut *big.Int
	Deadline     *big.Int
	SolverFeeBps *big.Int
	Status       uint8
	AmountOut    *big.Int
	Solver       string
	CreatedAt    *big.Int
}

var chainStatuses = map[uint8]models.IntentStatus{
	0: models.StatusOpen,
	1: models.StatusFilled,
	2: models.StatusCanceled,
	3: models.StatusExpired,
}

var chainTypes = map[uint8]models.IntentType{
	0: models.IntentTypeSwap,
	1: models.IntentTypeYield,
}

var typeToChain = map[models.IntentType]uint8{
	models.IntentTypeSwap:  0,
	models.IntentTypeYield: 1,
}

// ChainLedger adapts the on-chain intents contract to the Adapter
// contract. Deadlines on this ledger are denominated in block height.
type ChainLedger struct {
	client   *ethclient.Client
	contract *bind.BoundContract
	auth     *bind.TransactOpts
	sender   string
	logger   logger.Logger
}

var _ Adapter = (*ChainLedger)(nil)

// DialChainLedger connects to the RPC endpoint and binds the intents
// contract. The private key signs create/cancel/fill transactions;
// an empty key yields a read-only adapter.
func DialChainLedger(ctx context.Context, rpcURL, contractAddress, privateKeyHex string, lg logger.Logger) (*ChainLedger, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, &models.AdapterError{Op: "dial", Err: err}
	}

	parsed, err := abi.JSON(strings.NewReader(intentsABI))
	if err != nil {
		return nil, &models.AdapterError{Op: "dial", Err: fmt.Errorf("failed to parse intents ABI: %v", err)}
	}

	contract := bind.NewBoundContract(
		common.HexToAddress(contractAddress),
		parsed,
		client,
		client,
		client,
	)

	led := &ChainLedger{
		client:   client,
		contract: contract,
		logger:   lg,
	}

	if privateKeyHex != "" {
		auth, err := newAuthenticator(ctx, client, privateKeyHex)
		if err != nil {
			return nil, err
		}
		led.auth = auth
		led.sender = auth.From.Hex()
	}

	return led, nil
}

// newAuthenticator builds a keyed transactor for the connected chain.
func newAuthenticator(ctx context.Context, client *ethclient.Client, privateKeyHex string) (*bind.TransactOpts, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, &models.AdapterError{Op: "auth", Err: fmt.Errorf("failed to parse private key: %v", err)}
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, &models.AdapterError{Op: "auth", Err: fmt.Errorf("failed to get chain id: %v", err)}
	}

	auth, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		return nil, &models.AdapterError{Op: "auth", Err: fmt.Errorf("failed to create transactor: %v", err)}
	}
	return auth, nil
}

// decodeIntent converts a contract tuple into the domain model,
// failing fast when values are outside the expected shape rather than
// coercing them.
func decodeIntent(raw rawIntent) (models.Intent, error) {
	status, ok := chainStatuses[raw.Status]
	if !ok {
		return models.Intent{}, &models.AdapterError{Op: "decode", Err: fmt.Errorf("unknown status code %d", raw.Status)}
	}
	intentType, ok := chainTypes[raw.IntentType]
	if !ok {
		return models.Intent{}, &models.AdapterError{Op: "decode", Err: fmt.Errorf("unknown intent type code %d", raw.IntentType)}
	}
	if raw.Id == nil || raw.AmountIn == nil || raw.MinAmountOut == nil ||
		raw.Deadline == nil || raw.SolverFeeBps == nil || raw.AmountOut == nil || raw.CreatedAt == nil {
		return models.Intent{}, &models.AdapterError{Op: "decode", Err: fmt.Errorf("intent %v has nil numeric fields", raw.Id)}
	}
	if !raw.SolverFeeBps.IsInt64() || raw.SolverFeeBps.Int64() > models.MaxSolverFeeBps {
		return models.Intent{}, &models.AdapterError{Op: "decode", Err: fmt.Errorf("solver fee %s out of range", raw.SolverFeeBps)}
	}

	return models.Intent{
		ID:           raw.Id.Int64(),
		Creator:      raw.Creator,
		IntentType:   intentType,
		TokenIn:      raw.TokenIn,
		TokenOut:     raw.TokenOut,
		AmountIn:     raw.AmountIn.String(),
		MinAmountOut: raw.MinAmountOut.String(),
		Deadline:     raw.Deadline.Int64(),
		SolverFeeBps: int(raw.SolverFeeBps.Int64()),
		Status:       status,
		AmountOut:    raw.AmountOut.String(),
		Solver:       raw.Solver,
		CreatedAt:    raw.CreatedAt.Int64(),
	}, nil
}

// Get reads one intent and reconciles its status against the current
// block height.
func (l *ChainLedger) Get(ctx context.Context, id int64) (models.Intent, error) {
	var out []interface{}
	err := l.contract.Call(&bind.CallOpts{Context: ctx}, &out, "getIntent", big.NewInt(id))
	if err != nil {
		return models.Intent{}, &models.AdapterError{Op: "getIntent", Err: err}
	}
	if len(out) != 2 {
		return models.Intent{}, &models.AdapterError{Op: "getIntent", Err: fmt.Errorf("expected 2 outputs, got %d", len(out))}
	}

	exists, ok := out[1].(bool)
	if !ok {
		return models.Intent{}, &models.AdapterError{Op: "getIntent", Err: fmt.Errorf("exists flag has unexpected type %T", out[1])}
	}
	if !exists {
		return models.Intent{}, models.ErrNotFound
	}

	raw := *abi.ConvertType(out[0], new(rawIntent)).(*rawIntent)
	intent, err := decodeIntent(raw)
	if err != nil {
		return models.Intent{}, err
	}

	height, err := l.CurrentTime(ctx)
	if err != nil {
		return models.Intent{}, err
	}
	return intent.WithEffectiveStatus(height), nil
}

// List reads one page of intents in ascending id order.
func (l *ChainLedger) List(ctx context.Context, offset, limit int) ([]models.Intent, error) {
	var out []interface{}
	err := l.contract.Call(&bind.CallOpts{Context: ctx}, &out, "listIntents", big.NewInt(int64(offset)), big.NewInt(int64(limit)))
	if err != nil {
		return nil, &models.AdapterError{Op: "listIntents", Err: err}
	}
	if len(out) != 1 {
		return nil, &models.AdapterError{Op: "listIntents", Err: fmt.Errorf("expected 1 output, got %d", len(out))}
	}

	raws := *abi.ConvertType(out[0], new([]rawIntent)).(*[]rawIntent)

	height, err := l.CurrentTime(ctx)
	if err != nil {
		return nil, err
	}

	page := make([]models.Intent, 0, len(raws))
	for _, raw := range raws {
		intent, err := decodeIntent(raw)
		if err != nil {
			return nil, err
		}
		page = append(page, intent.WithEffectiveStatus(height))
	}
	return page, nil
}

// Create submits a createIntent transaction and waits for it to land.
// The creator parameter is advisory here: on this ledger the creator
// is the transaction sender.
func (l *ChainLedger) Create(ctx context.Context, creator string, params models.CreateIntentParams) (models.Intent, error) {
	if err := params.Validate(); err != nil {
		return models.Intent{}, err
	}
	if l.auth == nil {
		return models.Intent{}, &models.AdapterError{Op: "createIntent", Err: fmt.Errorf("no signing key configured")}
	}
	if creator != "" && creator != l.sender {
		l.logger.DebugC(logger.Ledger, "create: creator hint %s differs from tx sender %s", creator, l.sender)
	}

	amountIn, _ := new(big.Int).SetString(params.AmountIn, 10)
	minAmountOut, _ := new(big.Int).SetString(params.MinAmountOut, 10)

	tx, err := l.contract.Transact(l.txOpts(ctx), "createIntent",
		typeToChain[params.IntentType],
		params.TokenIn,
		params.TokenOut,
		amountIn,
		minAmountOut,
		big.NewInt(params.Deadline),
		big.NewInt(int64(params.SolverFeeBps)),
	)
	if err != nil {
		return models.Intent{}, &models.AdapterError{Op: "createIntent", Err: err}
	}

	if err := waitMined(ctx, l.client, "createIntent", tx); err != nil {
		return models.Intent{}, err
	}

	l.logger.InfoC(logger.Ledger, "createIntent landed (tx=%s)", tx.Hash().Hex())

	// The contract assigns the id inside the transaction; return a
	// snapshot carrying the tx reference. Callers that need the id
	// re-read through List.
	return models.Intent{
		Creator:      l.sender,
		IntentType:   params.IntentType,
		TokenIn:      params.TokenIn,
		TokenOut:     params.TokenOut,
		AmountIn:     params.AmountIn,
		MinAmountOut: params.MinAmountOut,
		Deadline:     params.Deadline,
		SolverFeeBps: params.SolverFeeBps,
		Status:       models.StatusOpen,
		AmountOut:    "0",
		LastTxID:     tx.Hash().Hex(),
	}, nil
}

// Cancel submits a cancelIntent transaction. Authorization is
// enforced by the contract against the transaction sender.
func (l *ChainLedger) Cancel(ctx context.Context, id int64, requester string) (models.Intent, error) {
	if l.auth == nil {
		return models.Intent{}, &models.AdapterError{Op: "cancelIntent", Err: fmt.Errorf("no signing key configured")}
	}
	if requester != "" && requester != l.sender {
		l.logger.DebugC(logger.Ledger, "cancel: requester %s differs from tx sender %s", requester, l.sender)
	}

	tx, err := l.contract.Transact(l.txOpts(ctx), "cancelIntent", big.NewInt(id))
	if err != nil {
		return models.Intent{}, &models.AdapterError{Op: "cancelIntent", Err: err}
	}
	if err := waitMined(ctx, l.client, "cancelIntent", tx); err != nil {
		return models.Intent{}, err
	}

	intent, err := l.Get(ctx, id)
	if err != nil {
		return models.Intent{}, err
	}
	intent.LastTxID = tx.Hash().Hex()
	return intent, nil
}

// Fill submits a fillIntent transaction with the quoted amount and
// routing label. The solver identity on chain is the tx sender.
func (l *ChainLedger) Fill(ctx context.Context, id int64, solver, quotedAmountOut, routeID string) (models.Intent, error) {
	if l.auth == nil {
		return models.Intent{}, &models.AdapterError{Op: "fillIntent", Err: fmt.Errorf("no signing key configured")}
	}
	quoted, ok := new(big.Int).SetString(quotedAmountOut, 10)
	if !ok {
		return models.Intent{}, &models.ValidationError{Message: fmt.Sprintf("quotedAmountOut must be a decimal integer string, got %q", quotedAmountOut)}
	}
	if solver != "" && solver != l.sender {
		l.logger.DebugC(logger.Ledger, "fill: solver %s differs from tx sender %s", solver, l.sender)
	}

	tx, err := l.contract.Transact(l.txOpts(ctx), "fillIntent", big.NewInt(id), quoted, routeID)
	if err != nil {
		return models.Intent{}, &models.AdapterError{Op: "fillIntent", Err: err}
	}
	if err := waitMined(ctx, l.client, "fillIntent", tx); err != nil {
		return models.Intent{}, err
	}

	intent, err := l.Get(ctx, id)
	if err != nil {
		return models.Intent{}, err
	}
	intent.LastTxID = tx.Hash().Hex()
	return intent, nil
}

// CurrentTime returns the latest block height. Deadlines on this
// ledger are heights, not timestamps.
func (l *ChainLedger) CurrentTime(ctx context.Context) (int64, error) {
	height, err := l.client.BlockNumber(ctx)
	if err != nil {
		return 0, &models.AdapterError{Op: "blockNumber", Err: err}
	}
	return int64(height), nil
}

// txOpts clones the transactor with the call context attached.
func (l *ChainLedger) txOpts(ctx context.Context) *bind.TransactOpts {
	opts := *l.auth
	opts.Context = ctx
	return &opts
}

// waitMined blocks until the transaction is mined and checks the
// receipt status.
func waitMined(ctx context.Context, backend bind.DeployBackend, op string, tx *types.Transaction) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	receipt, err := bind.WaitMined(timeoutCtx, backend, tx)
	if err != nil {
		return &models.AdapterError{Op: op, Err: fmt.Errorf("failed to wait for transaction %s: %v", tx.Hash().Hex(), err)}
	}
	if receipt.Status == types.ReceiptStatusFailed {
		return &models.AdapterError{Op: op, Err: fmt.Errorf("transaction %s reverted", tx.Hash().Hex())}
	}
	return nil
}
