package loadcheck

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/eblviz/internal/domain/dosage"
	"github.com/okian/eblviz/internal/domain/histogram"
	"github.com/okian/eblviz/pkg/logger"
)

// Verification failures.
var (
	ErrEstimateMismatch = errors.New("estimate mismatch")
	ErrSubmissionFailed = errors.New("submission failed")
	ErrUnknownDoses     = errors.New("service holds doses that were never submitted")
	ErrHistogramTotal   = errors.New("histogram counts do not match the dataset")
	ErrMarkerMismatch   = errors.New("histogram marker does not match the prediction")
	ErrAnimationLoop    = errors.New("animation loop is not the single current generation")
)

// verifyResults checks the state the service settled in after the load.
// All failures are collected before returning.
func verifyResults(ctx context.Context, config *Config, client *HTTPClient, subs []Submission, stats *Stats) error {
	log := logger.Get().Named("loadcheck")
	log.Info(ctx, "verifying results")

	var errs []error
	if stats.Mismatched > 0 {
		errs = append(errs, fmt.Errorf("%w: %d replies", ErrEstimateMismatch, stats.Mismatched))
	}
	if stats.Failed > 0 {
		errs = append(errs, fmt.Errorf("%w: %d of %d", ErrSubmissionFailed, stats.Failed, stats.Submitted))
	}
	if config.Workers == 1 && stats.Superseded > 0 {
		errs = append(errs, fmt.Errorf("%w: %d replies carried other doses with a single worker",
			ErrEstimateMismatch, stats.Superseded))
	}

	pred, err := verifyGroup(ctx, config, client, subs, dosage.GroupPrediction)
	if err != nil {
		errs = append(errs, err)
	}
	if err := verifyHistogram(ctx, client, pred, stats); err != nil {
		errs = append(errs, err)
	}
	if _, err := verifyGroup(ctx, config, client, subs, dosage.GroupAnimation); err != nil {
		errs = append(errs, err)
	}
	if err := verifyAnimationLoop(ctx, client, stats); err != nil {
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	log.Info(ctx, "result verification completed")
	return nil
}

// verifyGroup reads the group's current state: its estimate must fit its
// doses and the doses must be the last word of some submission.
func verifyGroup(ctx context.Context, config *Config, client *HTTPClient, subs []Submission, g dosage.Group) (doseReply, error) {
	var reply doseReply
	path := endpoint(Submission{Group: g})
	if err := client.getJSON(ctx, path, &reply); err != nil {
		return reply, err
	}
	if !estimateMatches(estimatorFor(config, g), reply.Doses, reply.Estimate) {
		return reply, fmt.Errorf("%w: %s reports %.3f for %+v", ErrEstimateMismatch, path, reply.Estimate, reply.Doses)
	}

	sent := false
	for _, s := range subs {
		if s.Group != g || s.Result == resultFailed || s.Result == "" {
			continue
		}
		sent = true
		if s.Doses == reply.Doses {
			return reply, nil
		}
	}
	if sent {
		return reply, fmt.Errorf("%w: %s %+v", ErrUnknownDoses, path, reply.Doses)
	}
	return reply, nil
}

// verifyHistogram checks that every dataset record falls in exactly one bin
// and that the marker sits at the prediction estimate.
func verifyHistogram(ctx context.Context, client *HTTPClient, pred doseReply, stats *Stats) error {
	var records []map[string]interface{}
	dataErr := client.getJSON(ctx, "/health_data", &records)

	var layout histogram.Layout
	histErr := client.getJSON(ctx, "/api/prediction/histogram", &layout)

	if isUnavailable(dataErr) && isUnavailable(histErr) {
		logger.Get().Warn(ctx, "service has no dataset; histogram checks skipped")
		return nil
	}
	if dataErr != nil {
		return dataErr
	}
	if histErr != nil {
		return histErr
	}

	total := 0
	for _, b := range layout.Bins {
		total += b.Count
	}
	stats.DatasetRecords = len(records)
	stats.HistogramTotal = total
	if total != len(records) {
		return fmt.Errorf("%w: %d counted, %d records", ErrHistogramTotal, total, len(records))
	}
	if layout.Marker != nil && !approxEqual(layout.Marker.Value, pred.Estimate) {
		return fmt.Errorf("%w: marker %.3f, prediction %.3f", ErrMarkerMismatch, layout.Marker.Value, pred.Estimate)
	}
	return nil
}

// verifyAnimationLoop checks that exactly one loop runs and that it belongs
// to the generation /api/animation reports.
func verifyAnimationLoop(ctx context.Context, client *HTTPClient, stats *Stats) error {
	var anim doseReply
	if err := client.getJSON(ctx, "/api/animation", &anim); err != nil {
		return err
	}
	var svc map[string]interface{}
	if err := client.getJSON(ctx, "/stats", &svc); err != nil {
		return err
	}
	stats.Generation = anim.Generation

	running, _ := svc["animationRunning"].(bool)
	generation, _ := svc["animationGeneration"].(string)
	switch {
	case !running:
		return fmt.Errorf("%w: no loop running", ErrAnimationLoop)
	case generation != anim.Generation:
		return fmt.Errorf("%w: stats report %q, animation reports %q", ErrAnimationLoop, generation, anim.Generation)
	}
	return nil
}

func isUnavailable(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusServiceUnavailable
}

func approxEqual(a, b float64) bool {
	d := a - b
	return d <= estimateTolerance && d >= -estimateTolerance
}
