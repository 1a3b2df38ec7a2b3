package bank

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"math"

	"github.com/code-payments/exchange-booth/pkg/solana/runtime"
	"github.com/code-payments/exchange-booth/pkg/solana/token"
)

// tokenProgram implements the subset of the SPL token program used by the
// ledger: mint and account initialization, minting and transfers.
type tokenProgram struct{}

func newTokenProgram() runtime.Program {
	return &tokenProgram{}
}

func (p *tokenProgram) Process(_ context.Context, invoker runtime.Invoker, _ ed25519.PublicKey, accounts []*runtime.AccountInfo, data []byte) error {
	if len(data) == 0 {
		return token.ErrorInvalidInstruction
	}

	switch token.Command(data[0]) {
	case token.CommandInitializeMint:
		args, err := token.UnmarshalInitializeMintData(data)
		if err != nil {
			return token.ErrorInvalidInstruction
		}
		return p.initializeMint(invoker, accounts, args)
	case token.CommandInitializeAccount:
		return p.initializeAccount(invoker, accounts)
	case token.CommandTransfer:
		amount, err := token.UnmarshalAmountData(token.CommandTransfer, data)
		if err != nil {
			return token.ErrorInvalidInstruction
		}
		return p.transfer(accounts, amount)
	case token.CommandMintTo:
		amount, err := token.UnmarshalAmountData(token.CommandMintTo, data)
		if err != nil {
			return token.ErrorInvalidInstruction
		}
		return p.mintTo(accounts, amount)
	default:
		return token.ErrorInvalidInstruction
	}
}

func (p *tokenProgram) initializeMint(invoker runtime.Invoker, accounts []*runtime.AccountInfo, args *token.InitializeMintArgs) error {
	it := runtime.NewAccountIterator(accounts)
	mintInfo, err := it.Next()
	if err != nil {
		return err
	}

	if !mintInfo.IsOwnedBy(token.ProgramKey) {
		return runtime.ErrIncorrectProgramID
	}

	var mint token.Mint
	if !mint.Unmarshal(mintInfo.Data) {
		return runtime.ErrInvalidAccountData
	}
	if mint.IsInitialized {
		return token.ErrorAlreadyInUse
	}
	if !invoker.Rent().IsExempt(mintInfo.Lamports, uint64(len(mintInfo.Data))) {
		return token.ErrorNotRentExempt
	}

	mint = token.Mint{
		MintAuthority:   args.MintAuthority,
		Decimals:        args.Decimals,
		IsInitialized:   true,
		FreezeAuthority: args.FreezeAuthority,
	}
	copy(mintInfo.Data, mint.Marshal())

	return nil
}

func (p *tokenProgram) initializeAccount(invoker runtime.Invoker, accounts []*runtime.AccountInfo) error {
	it := runtime.NewAccountIterator(accounts)
	accountInfo, err := it.Next()
	if err != nil {
		return err
	}
	mintInfo, err := it.Next()
	if err != nil {
		return err
	}
	ownerInfo, err := it.Next()
	if err != nil {
		return err
	}

	if !accountInfo.IsOwnedBy(token.ProgramKey) {
		return runtime.ErrIncorrectProgramID
	}

	var account token.Account
	if !account.Unmarshal(accountInfo.Data) {
		return runtime.ErrInvalidAccountData
	}
	if account.IsInitialized() {
		return token.ErrorAlreadyInUse
	}
	if !invoker.Rent().IsExempt(accountInfo.Lamports, uint64(len(accountInfo.Data))) {
		return token.ErrorNotRentExempt
	}

	if _, err := loadMint(mintInfo); err != nil {
		return err
	}

	account = token.Account{
		Mint:  mintInfo.Key,
		Owner: ownerInfo.Key,
		State: token.AccountStateInitialized,
	}
	copy(accountInfo.Data, account.Marshal())

	return nil
}

func (p *tokenProgram) transfer(accounts []*runtime.AccountInfo, amount uint64) error {
	it := runtime.NewAccountIterator(accounts)
	sourceInfo, err := it.Next()
	if err != nil {
		return err
	}
	destinationInfo, err := it.Next()
	if err != nil {
		return err
	}
	authorityInfo, err := it.Next()
	if err != nil {
		return err
	}

	source, err := loadTokenAccount(sourceInfo)
	if err != nil {
		return err
	}
	destination, err := loadTokenAccount(destinationInfo)
	if err != nil {
		return err
	}

	if source.State == token.AccountStateFrozen || destination.State == token.AccountStateFrozen {
		return token.ErrorAccountFrozen
	}
	if source.Amount < amount {
		return token.ErrorInsufficientFunds
	}
	if !bytes.Equal(source.Mint, destination.Mint) {
		return token.ErrorMintMismatch
	}
	if !bytes.Equal(source.Owner, authorityInfo.Key) {
		return token.ErrorOwnerMismatch
	}
	if !authorityInfo.IsSigner {
		return runtime.ErrMissingRequiredSignature
	}

	if bytes.Equal(sourceInfo.Key, destinationInfo.Key) {
		return nil
	}

	source.Amount -= amount
	destination.Amount += amount

	copy(sourceInfo.Data, source.Marshal())
	copy(destinationInfo.Data, destination.Marshal())

	return nil
}

func (p *tokenProgram) mintTo(accounts []*runtime.AccountInfo, amount uint64) error {
	it := runtime.NewAccountIterator(accounts)
	mintInfo, err := it.Next()
	if err != nil {
		return err
	}
	destinationInfo, err := it.Next()
	if err != nil {
		return err
	}
	authorityInfo, err := it.Next()
	if err != nil {
		return err
	}

	mint, err := loadMint(mintInfo)
	if err != nil {
		return err
	}
	destination, err := loadTokenAccount(destinationInfo)
	if err != nil {
		return err
	}

	if destination.State == token.AccountStateFrozen {
		return token.ErrorAccountFrozen
	}
	if !bytes.Equal(destination.Mint, mintInfo.Key) {
		return token.ErrorMintMismatch
	}
	if len(mint.MintAuthority) == 0 {
		return token.ErrorFixedSupply
	}
	if !bytes.Equal(mint.MintAuthority, authorityInfo.Key) {
		return token.ErrorOwnerMismatch
	}
	if !authorityInfo.IsSigner {
		return runtime.ErrMissingRequiredSignature
	}
	if math.MaxUint64-mint.Supply < amount || math.MaxUint64-destination.Amount < amount {
		return token.ErrorOverflow
	}

	mint.Supply += amount
	destination.Amount += amount

	copy(mintInfo.Data, mint.Marshal())
	copy(destinationInfo.Data, destination.Marshal())

	return nil
}

func loadMint(info *runtime.AccountInfo) (*token.Mint, error) {
	if !info.IsOwnedBy(token.ProgramKey) {
		return nil, runtime.ErrIncorrectProgramID
	}

	var mint token.Mint
	if !mint.Unmarshal(info.Data) || !mint.IsInitialized {
		return nil, token.ErrorInvalidMint
	}
	return &mint, nil
}

func loadTokenAccount(info *runtime.AccountInfo) (*token.Account, error) {
	if !info.IsOwnedBy(token.ProgramKey) {
		return nil, runtime.ErrIncorrectProgramID
	}

	var account token.Account
	if !account.Unmarshal(info.Data) || !account.IsInitialized() {
		return nil, runtime.ErrUninitializedAccount
	}
	return &account, nil
}
