package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/Kosench/shortlink/internal/errors"
	"github.com/Kosench/shortlink/internal/model"
	"github.com/Kosench/shortlink/internal/utils"
)

const defaultMaxRetries = 5

// LinkInserter is the part of the store the generator writes through.
type LinkInserter interface {
	Insert(ctx context.Context, link *model.Link) (int64, error)
}

type GeneratorConfig struct {
	CodeLength         int
	FallbackCodeLength int // 0 disables the fallback round
	MaxRetries         int
}

// CodeGenerator allocates a short code and its backing link in one step.
// Uniqueness is decided by the store's Insert, never by a prior lookup.
type CodeGenerator struct {
	store  LinkInserter
	cfg    GeneratorConfig
	draw   func(length int) (string, error)
	now    func() time.Time
	logger *zap.Logger
}

func NewCodeGenerator(store LinkInserter, cfg GeneratorConfig, logger *zap.Logger) *CodeGenerator {
	if cfg.CodeLength <= 0 {
		cfg.CodeLength = utils.DefaultShortCodeLength
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	return &CodeGenerator{
		store:  store,
		cfg:    cfg,
		draw:   utils.GenerateShortCodeWithLength,
		now:    time.Now,
		logger: logger,
	}
}

// Generate persists a new active link for destinationURL owned by ownerID.
// destinationURL must already be validated.
func (g *CodeGenerator) Generate(ctx context.Context, ownerID, destinationURL string) (*model.Link, error) {
	lengths := []int{g.cfg.CodeLength}
	if g.cfg.FallbackCodeLength > g.cfg.CodeLength {
		lengths = append(lengths, g.cfg.FallbackCodeLength)
	}

	attempts := 0
	for _, length := range lengths {
		for i := 0; i < g.cfg.MaxRetries; i++ {
			attempts++

			code, err := g.draw(length)
			if err != nil {
				return nil, fmt.Errorf("failed to draw short code: %w", err)
			}

			link := &model.Link{
				OwnerID:        ownerID,
				DestinationURL: destinationURL,
				ShortCode:      &code,
				Active:         true,
				CreatedAt:      g.now().UTC(),
			}

			_, err = g.store.Insert(ctx, link)
			if err == nil {
				return link, nil
			}
			if !errors.Is(err, apperrors.ErrDuplicateCode) {
				return nil, err
			}

			g.logger.Debug("short code collision",
				zap.String("short_code", code),
				zap.Int("attempt", attempts),
			)
		}

		if len(lengths) > 1 && length == g.cfg.CodeLength {
			g.logger.Warn("short code space congested, falling back to longer codes",
				zap.Int("length", length),
				zap.Int("fallback_length", g.cfg.FallbackCodeLength),
			)
		}
	}

	return nil, apperrors.NewGenerationExhausted(attempts)
}
