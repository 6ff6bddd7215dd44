package history

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/naikprasanna/Plant-Monitoring/src/helpers"
	"github.com/naikprasanna/Plant-Monitoring/src/interfaces"
	"github.com/naikprasanna/Plant-Monitoring/src/logger"
	"github.com/naikprasanna/Plant-Monitoring/src/models"
)

// -----------------------------------------------------------------------------
// HTTPProvider queries a remote readings API. The upstream performs the
// bucketing; this side re-validates, sorts and dedupes the response, since
// the window store rejects whole chunks on the first malformed point.
// -----------------------------------------------------------------------------

type HTTPProvider struct {
	Config  *models.MConfig
	Network interfaces.INetworkManager
	Logger  *logger.Logger
}

// -----------------------------------------------------------------------------

func NewHTTPProvider(cfg *models.MConfig, netMgr interfaces.INetworkManager, log *logger.Logger) *HTTPProvider {
	return &HTTPProvider{
		Config:  cfg,
		Network: netMgr,
		Logger:  log,
	}
}

// -----------------------------------------------------------------------------

func (p *HTTPProvider) Name() string {
	return "http"
}

// -----------------------------------------------------------------------------

func (p *HTTPProvider) Initialize() error {
	if p.Config.History.BaseURL == "" {
		return helpers.NewConfigurationError("http history provider requires a base url", nil)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (p *HTTPProvider) FetchRange(ctx context.Context, startMs, endMs, bucketMs int64) (models.MSeries, error) {
	base := strings.TrimSuffix(p.Config.History.BaseURL, "/")
	reqUrl := fmt.Sprintf("%s/api/v1/sensors/%s/readings", base, url.PathEscape(p.Config.Sensor.ID))

	params := map[string]string{
		"start_ms":  strconv.FormatInt(startMs, 10),
		"end_ms":    strconv.FormatInt(endMs, 10),
		"bucket_ms": strconv.FormatInt(bucketMs, 10),
	}

	respBytes, err := p.Network.Get(ctx, reqUrl, params)
	if err != nil {
		return nil, err
	}

	return p.parseReadings(respBytes)
}

// -----------------------------------------------------------------------------

// parseReadings cleans the upstream payload: non-finite values are skipped
// with a log line, the rest is sorted ascending, and duplicate timestamps
// collapse to the last occurrence.
func (p *HTTPProvider) parseReadings(data []byte) (models.MSeries, error) {
	var raw models.MSeries
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("json unmarshal failed: %w", err)
	}

	series := make(models.MSeries, 0, len(raw))
	for i, pt := range raw {
		if !pt.IsFinite() {
			p.Logger.Info("Skipping invalid point at index %d: value=%f", i, pt.Value)
			continue
		}
		series = append(series, pt)
	}

	// Stable sort keeps upstream order among equal timestamps, so "last one
	// wins" below means last as delivered.
	sort.SliceStable(series, func(i, j int) bool {
		return series[i].Timestamp < series[j].Timestamp
	})

	// Collapse duplicate timestamps, last one wins
	deduped := series[:0]
	for _, pt := range series {
		if n := len(deduped); n > 0 && deduped[n-1].Timestamp == pt.Timestamp {
			deduped[n-1] = pt
			continue
		}
		deduped = append(deduped, pt)
	}

	if len(deduped) > 0 {
		p.Logger.Debug("Fetched %d valid points [%d -> %d]", len(deduped), deduped[0].Timestamp, deduped[len(deduped)-1].Timestamp)
	}
	return deduped, nil
}

// -----------------------------------------------------------------------------

func (p *HTTPProvider) Close() error {
	return nil
}
