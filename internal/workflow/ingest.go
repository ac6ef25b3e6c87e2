package workflow

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/kovyrin/pdfish/internal/channel"
	"github.com/kovyrin/pdfish/internal/materialize"
	"github.com/kovyrin/pdfish/internal/resource"
	"github.com/kovyrin/pdfish/internal/state"
)

const (
	// ChannelName is the method channel the host answers queries on.
	ChannelName = "pdfish/file_intent"
	// MethodInitialFilePath returns the last ingested path, or nil.
	MethodInitialFilePath = "getInitialFilePath"

	// ActionView is the only intent action the host reacts to.
	ActionView = "view"
	// PDFMimeType prefixes the content types that are ingested.
	PDFMimeType = "application/pdf"
)

// Intent is an "open this resource" event delivered by the host.
type Intent struct {
	Action string
	Type   string
	Data   string // resource URI
}

// IngestOptions contains options for the ingestion workflow
type IngestOptions struct {
	CacheDir       string
	BufferSize     int
	FallbackPrefix string
	FallbackSuffix string
	Fs             afero.Fs
	Clock          func() time.Time
	Resolver       *resource.Resolver
	State          *state.LastPath
	Logger         *zap.Logger
}

// Ingestor turns view intents into cached files and answers queries about
// the latest one.
type Ingestor struct {
	resolver     *resource.Resolver
	materializer *materialize.Materializer
	state        *state.LastPath
	channel      *channel.Channel
	logger       *zap.Logger
}

// New creates a new ingestor
func New(opts IngestOptions) (*Ingestor, error) {
	if opts.Resolver == nil {
		return nil, errors.New("workflow: resolver is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	st := opts.State
	if st == nil {
		st = state.NewLastPath()
	}

	m, err := materialize.New(materialize.Options{
		CacheDir:   opts.CacheDir,
		BufferSize: opts.BufferSize,
		Prefix:     opts.FallbackPrefix,
		Suffix:     opts.FallbackSuffix,
		Fs:         opts.Fs,
		Clock:      opts.Clock,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create materializer: %w", err)
	}

	i := &Ingestor{
		resolver:     opts.Resolver,
		materializer: m,
		state:        st,
		channel:      channel.New(ChannelName),
		logger:       logger,
	}
	i.channel.Handle(MethodInitialFilePath, i.initialFilePath)
	return i, nil
}

// Channel returns the channel queries are answered on.
func (i *Ingestor) Channel() *channel.Channel { return i.channel }

// State returns the last-ingested-path holder.
func (i *Ingestor) State() *state.LastPath { return i.state }

// Accepts reports whether intent would be handed to the materializer.
func Accepts(intent Intent) bool {
	return intent.Action == ActionView && strings.HasPrefix(intent.Type, PDFMimeType)
}

// HandleIntent ingests the document an intent points at. Intents that are
// not PDF views are ignored. Failures are logged and leave the previously
// ingested path in place. It reports whether a new path was recorded.
func (i *Ingestor) HandleIntent(intent Intent) bool {
	if !Accepts(intent) {
		i.logger.Debug("ignoring intent", zap.String("action", intent.Action), zap.String("type", intent.Type))
		return false
	}
	if intent.Data == "" {
		return false
	}

	log := i.logger.With(zap.String("uri", intent.Data))

	h, err := i.resolver.Resolve(intent.Data)
	if err != nil {
		log.Error("error resolving pdf resource", zap.Error(err))
		return false
	}

	res, ok, err := i.materializer.Materialize(h)
	if err != nil {
		log.Error("error processing pdf file", zap.Error(err))
		return false
	}
	if !ok {
		log.Warn("pdf resource could not be opened")
		return false
	}

	i.state.Set(res.Path)
	log.Info("pdf file received",
		zap.String("path", res.Path),
		zap.Int64("size", res.Size),
		zap.String("sha256", res.SHA256),
	)
	return true
}

func (i *Ingestor) initialFilePath(channel.MethodCall) (any, error) {
	if p, ok := i.state.Get(); ok {
		return p, nil
	}
	return nil, nil
}
