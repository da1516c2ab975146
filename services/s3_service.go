package services

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"engins-backoffice/constants"
	"engins-backoffice/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// S3API est le sous-ensemble du client S3 utilisé
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Service héberge les fichiers dans un bucket S3
type S3Service struct {
	client S3API
	bucket string
	region string
}

// NewS3Service crée le client S3 à partir des identifiants fournis
func NewS3Service(ctx context.Context, region, bucket, accessKey, secretKey string) (*S3Service, error) {
	if region == "" || bucket == "" || accessKey == "" || secretKey == "" {
		return nil, fmt.Errorf("configuration AWS incomplète")
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("erreur de configuration AWS: %w", err)
	}

	return NewS3ServiceWithClient(s3.NewFromConfig(cfg), region, bucket), nil
}

// NewS3ServiceWithClient construit le service autour d'un client existant
func NewS3ServiceWithClient(client S3API, region, bucket string) *S3Service {
	return &S3Service{client: client, bucket: bucket, region: region}
}

// Upload envoie le fichier dans le bucket sous folder/<uuid>.<ext>
func (s *S3Service) Upload(ctx context.Context, r io.Reader, filename, folder string) (*models.Image, error) {
	data, contentType, err := sniffFile(r, constants.MaxImageSize)
	if err != nil {
		return nil, err
	}

	ext := extension(contentType)
	key := fmt.Sprintf("%s/%s.%s", folder, uuid.New().String(), ext)

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		Metadata:    map[string]string{"original-filename": filename},
	})
	if err != nil {
		return nil, fmt.Errorf("erreur lors de l'upload S3: %w", err)
	}

	width, height := 0, 0
	if IsImage(contentType) {
		width, height = imageDimensions(data)
	}

	return &models.Image{
		ID:      key,
		URL:     fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key),
		Largeur: width,
		Hauteur: height,
		Format:  ext,
		Taille:  int64(len(data)),
	}, nil
}

// Delete supprime l'objet du bucket
func (s *S3Service) Delete(ctx context.Context, id string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(id),
	})
	if err != nil {
		return fmt.Errorf("erreur lors de la suppression S3: %w", err)
	}
	return nil
}
