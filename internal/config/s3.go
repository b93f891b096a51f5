package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/nguyengg/walgrep/walk"
)

// NewS3ClientForBucket returns an S3 client for the bucket, creating it on first use.
//
// The profile is Loader.Profile, else the bucket's profile in the configuration file. The region is the bucket's
// configured region, else it is discovered with HeadBucket.
func (l *Loader) NewS3ClientForBucket(ctx context.Context, bucket string, optFns ...func(*s3.Options)) (*s3.Client, error) {
	key := "s3://" + bucket
	if c, ok := l.s3clientCache.Load(key); ok {
		return c.(*s3.Client), nil
	}

	bc := l.cfg.S3.ForBucket(bucket)

	cfg, err := config.LoadDefaultConfig(ctx, func(opts *config.LoadOptions) error {
		if l.Profile != "" {
			opts.SharedConfigProfile = l.Profile
			return nil
		}

		opts.SharedConfigProfile = bc.Profile
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load AWS config error: %w", err)
	}

	region := bc.Region
	if region == "" {
		if cfg.Region == "" {
			cfg.Region = "us-east-1"
		}

		if region, err = manager.GetBucketRegion(ctx, s3.NewFromConfig(cfg), bucket); err != nil {
			return nil, fmt.Errorf(`determine region of bucket "%s" error: %w`, bucket, err)
		}
	}

	c := s3.NewFromConfig(cfg, append([]func(*s3.Options){func(opts *s3.Options) {
		opts.Region = region
	}}, optFns...)...)
	actual, _ := l.s3clientCache.LoadOrStore(key, c)
	return actual.(*s3.Client), nil
}

// S3 returns a client provider for walgrep.Options.S3 backed by NewS3ClientForBucket.
func (l *Loader) S3() func(ctx context.Context, bucket string) (walk.S3API, error) {
	return func(ctx context.Context, bucket string) (walk.S3API, error) {
		c, err := l.NewS3ClientForBucket(ctx, bucket)
		if err != nil {
			return nil, err
		}

		return c, nil
	}
}
