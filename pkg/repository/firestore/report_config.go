package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/oprisk/pkg/domain/model"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const reportConfigDocID = "default"

type reportConfigDocument struct {
	ExecutiveSummary string    `firestore:"executive_summary"`
	UpdatedAt        time.Time `firestore:"updated_at"`
}

type reportConfigRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newReportConfigRepository(client *firestore.Client) *reportConfigRepository {
	return &reportConfigRepository{
		client: client,
	}
}

func (r *reportConfigRepository) docRef() *firestore.DocumentRef {
	collection := "report_configurations"
	if r.collectionPrefix != "" {
		collection = r.collectionPrefix + "_" + collection
	}
	return r.client.Collection(collection).Doc(reportConfigDocID)
}

func (r *reportConfigRepository) GetOrCreate(ctx context.Context) (*model.ReportConfiguration, error) {
	ref := r.docRef()

	var result reportConfigDocument
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) != codes.NotFound {
				return goerr.Wrap(err, "failed to get report configuration")
			}
			result = reportConfigDocument{
				ExecutiveSummary: model.DefaultExecutiveSummary,
				UpdatedAt:        time.Now().UTC(),
			}
			return tx.Create(ref, &result)
		}
		if err := doc.DataTo(&result); err != nil {
			return goerr.Wrap(err, "failed to unmarshal report configuration")
		}
		return nil
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get or create report configuration")
	}

	return &model.ReportConfiguration{
		ExecutiveSummary: result.ExecutiveSummary,
		UpdatedAt:        result.UpdatedAt,
	}, nil
}

func (r *reportConfigRepository) Put(ctx context.Context, cfg *model.ReportConfiguration) (*model.ReportConfiguration, error) {
	doc := reportConfigDocument{
		ExecutiveSummary: cfg.ExecutiveSummary,
		UpdatedAt:        time.Now().UTC(),
	}
	if _, err := r.docRef().Set(ctx, &doc); err != nil {
		return nil, goerr.Wrap(err, "failed to put report configuration")
	}

	return &model.ReportConfiguration{
		ExecutiveSummary: doc.ExecutiveSummary,
		UpdatedAt:        doc.UpdatedAt,
	}, nil
}
