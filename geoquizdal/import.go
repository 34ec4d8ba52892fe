package geoquizdal

import (
	"context"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
)

// Import loads a dataset (validating, simplifying and naming its features) and writes the result into a prepared store.
// The prepared store is rolled back if anything fails.
func Import(
	ctx context.Context,
	logger *logpkg.Logger,
	loader *FeatureLoader,
	sourceConnURL DatasetConnectionURL,
	finalStorage FinalStorage,
) (int, errorsx.Error) {
	var successful bool

	defer func() {
		if !successful {
			err := finalStorage.Rollback()
			if err != nil {
				logger.Error("couldn't rollback. Error: %s\nStack trace:\n%s\n", err.Error(), err.Stack())
			}
		}
	}()

	features, err := loader.Load(ctx, sourceConnURL)
	if err != nil {
		return 0, errorsx.Wrap(err)
	}

	for i, feature := range features {
		err = finalStorage.ImportFeature(feature)
		if err != nil {
			return 0, errorsx.Wrap(err, "featureIndex", i, "featureName", feature.Name)
		}

		if (i+1)%100 == 0 {
			logger.Info("imported %d of %d features", i+1, len(features))
		}
	}

	err = finalStorage.Commit()
	if err != nil {
		return 0, errorsx.Wrap(err)
	}

	successful = true
	logger.Info("imported %d features from %q", len(features), sourceConnURL.String())

	return len(features), nil
}
