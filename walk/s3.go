package walk

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/nguyengg/walgrep/zip/scan"
)

func walkS3(ctx context.Context, root string, recurse bool, opts *Options) iter.Seq2[Candidate, error] {
	return func(yield func(Candidate, error) bool) {
		bucket, key, err := ParseS3URI(root)
		if err != nil {
			yield(Candidate{}, err)
			return
		}

		if opts.S3 == nil {
			yield(Candidate{}, fmt.Errorf(`walk "%s" error: %w`, root, ErrNoS3Client))
			return
		}

		client, err := opts.S3(ctx, bucket)
		if err != nil {
			yield(Candidate{}, fmt.Errorf(`create S3 client for bucket "%s" error: %w`, bucket, err))
			return
		}

		// a key not ending in "/" might be an object; if it is, it's the only candidate.
		prefix := key
		if key != "" && !strings.HasSuffix(key, "/") {
			headObjectOutput, err := client.HeadObject(ctx, &s3.HeadObjectInput{
				Bucket: aws.String(bucket),
				Key:    aws.String(key),
			})
			if err == nil {
				if ctx.Err() == nil {
					yield(s3Candidate(client, bucket, key, path.Base(key), aws.ToInt64(headObjectOutput.ContentLength)), nil)
				}
				return
			}

			if !isNotFound(err) {
				yield(Candidate{}, fmt.Errorf(`head "%s" error: %w`, root, err))
				return
			}

			prefix = key + "/"
		}

		input := &s3.ListObjectsV2Input{
			Bucket: aws.String(bucket),
		}
		if prefix != "" {
			input.Prefix = aws.String(prefix)
		}
		if !recurse {
			input.Delimiter = aws.String("/")
		}

		listed := 0
		for paginator := s3.NewListObjectsV2Paginator(client, input); paginator.HasMorePages(); {
			if ctx.Err() != nil {
				return
			}

			page, err := paginator.NextPage(ctx)
			if err != nil {
				if ctx.Err() == nil {
					yield(Candidate{}, fmt.Errorf(`list "%s" error: %w`, root, err))
				}
				return
			}

			listed += len(page.Contents) + len(page.CommonPrefixes)

			for _, obj := range page.Contents {
				if ctx.Err() != nil {
					return
				}

				k := aws.ToString(obj.Key)
				if strings.HasSuffix(k, "/") {
					continue
				}

				size := aws.ToInt64(obj.Size)
				if !scan.IsZip(newObjectReader(ctx, client, bucket, k, size), size) {
					continue
				}

				if !yield(s3Candidate(client, bucket, k, strings.TrimPrefix(k, prefix), size), nil) {
					return
				}
			}
		}

		if listed == 0 && key != "" {
			yield(Candidate{}, fmt.Errorf(`walk "%s" error: %w`, root, fs.ErrNotExist))
		}
	}
}

func isNotFound(err error) bool {
	var nf *types.NotFound
	var nsk *types.NoSuchKey
	return errors.As(err, &nf) || errors.As(err, &nsk)
}

func s3Candidate(client S3API, bucket, key, display string, size int64) Candidate {
	return Candidate{
		Path:    "s3://" + bucket + "/" + key,
		Display: display,
		Size:    size,
		open: func(ctx context.Context) (File, error) {
			return newObjectReader(ctx, client, bucket, key, size), nil
		},
	}
}
