package booth

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/exchange-booth/pkg/code/async"
	"github.com/code-payments/exchange-booth/pkg/code/common"
	"github.com/code-payments/exchange-booth/pkg/code/data/vault"
	"github.com/code-payments/exchange-booth/pkg/database/query"
	"github.com/code-payments/exchange-booth/pkg/metrics"
	"github.com/code-payments/exchange-booth/pkg/retry"
	sync_util "github.com/code-payments/exchange-booth/pkg/sync"
)

// SyncService periodically refreshes the vault store from the ledger. It
// syncs the vaults of its watched mints and every vault already in the store.
type SyncService struct {
	log    *logrus.Entry
	client *Client

	mintsMu sync.RWMutex
	mints   map[string]*common.Account
}

var _ async.Service = (*SyncService)(nil)

func NewSyncService(client *Client, mints ...*common.Account) *SyncService {
	s := &SyncService{
		log:    logrus.StandardLogger().WithField("service", "booth/sync"),
		client: client,
		mints:  make(map[string]*common.Account),
	}
	for _, mint := range mints {
		s.Watch(mint)
	}
	return s
}

// Watch adds a mint whose vault is synced even before it is in the store.
func (s *SyncService) Watch(mint *common.Account) {
	s.mintsMu.Lock()
	s.mints[mint.PublicKey().ToBase58()] = mint
	s.mintsMu.Unlock()
}

func (s *SyncService) Start(ctx context.Context, interval time.Duration) error {
	go func() {
		err := s.worker(ctx, interval)
		if err != nil && err != context.Canceled {
			s.log.WithError(err).Warn("vault sync loop terminated unexpectedly")
		}
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *SyncService) worker(serviceCtx context.Context, interval time.Duration) error {
	delay := interval

	return retry.Loop(
		func() (err error) {
			select {
			case <-serviceCtx.Done():
				return serviceCtx.Err()
			case <-time.After(delay):
			}

			nr, _ := serviceCtx.Value(metrics.NewRelicContextKey).(*newrelic.Application)
			m := nr.StartTransaction("async__booth_sync_service__sync_all")
			defer m.End()
			tracedCtx := newrelic.NewContext(serviceCtx, m)

			_, err = s.SyncAll(tracedCtx)
			if err != nil {
				m.NoticeError(err)
			}
			return err
		},
		retry.Context(serviceCtx),
		retry.NonRetriableErrors(context.Canceled, context.DeadlineExceeded),
	)
}

// SyncAll runs a single sync pass and returns the number of vaults saved.
// Vaults that fail to sync are logged and skipped.
func (s *SyncService) SyncAll(ctx context.Context) (uint64, error) {
	log := s.log.WithField("method", "SyncAll")

	mints, err := s.collectMints(ctx)
	if err != nil {
		log.WithError(err).Warn("failure collecting mints")
		return 0, err
	}

	concurrency := s.client.conf.syncConcurrency.Get(ctx)
	if concurrency == 0 {
		concurrency = 1
	}

	// Mints are striped by key so a given vault is only ever synced by one
	// worker within a pass.
	queue := sync_util.NewStripedChannel[*common.Account](uint(concurrency), uint(len(mints)))
	for _, mint := range mints {
		queue.BlockingSend(mint.PublicKey().ToBytes(), mint)
	}
	queue.Close()

	var synced uint64
	var wg sync.WaitGroup
	for _, channel := range queue.GetChannels() {
		wg.Add(1)

		go func(channel <-chan *common.Account) {
			defer wg.Done()

			for mint := range channel {
				_, err := s.client.SyncVault(ctx, mint)
				switch err {
				case nil:
					atomic.AddUint64(&synced, 1)
				case ErrVaultNotInitialized:
					log.WithField("mint", mint.PublicKey().ToBase58()).Trace("vault is not initialized")
				default:
					log.WithError(err).WithField("mint", mint.PublicKey().ToBase58()).Warn("failure syncing vault")
				}
			}
		}(channel)
	}
	wg.Wait()

	recordSyncedVaultsCount(ctx, synced)
	return synced, nil
}

func (s *SyncService) collectMints(ctx context.Context) ([]*common.Account, error) {
	programId := s.client.Program().PublicKey().ToBase58()
	batchSize := s.client.conf.syncBatchSize.Get(ctx)

	s.mintsMu.RLock()
	byMint := make(map[string]*common.Account, len(s.mints))
	for key, mint := range s.mints {
		byMint[key] = mint
	}
	s.mintsMu.RUnlock()

	cursor := query.EmptyCursor
	for {
		records, err := s.client.vaults.GetAll(ctx, cursor, batchSize, query.Ascending)
		if err == vault.ErrVaultNotFound {
			break
		} else if err != nil {
			return nil, err
		}

		for _, record := range records {
			if record.ProgramId != programId {
				continue
			}

			if _, ok := byMint[record.Mint]; ok {
				continue
			}

			mint, err := common.NewAccountFromPublicKeyString(record.Mint)
			if err != nil {
				s.log.WithError(err).WithField("vault", record.Address).Warn("invalid mint in stored vault")
				continue
			}
			byMint[record.Mint] = mint
		}

		cursor = query.ToCursor(records[len(records)-1].Id)
	}

	mints := make([]*common.Account, 0, len(byMint))
	for _, mint := range byMint {
		mints = append(mints, mint)
	}
	return mints, nil
}
