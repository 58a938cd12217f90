package firestore

import (
	"context"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/oprisk/pkg/domain/model"
	"github.com/secmon-lab/oprisk/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// RisksCollection is the base collection name for risks; documents are keyed
// by reference ID so Firestore enforces uniqueness on create.
const RisksCollection = "risks"

type riskDocument struct {
	ID                  int64     `firestore:"id"`
	ReferenceID         string    `firestore:"reference_id"`
	AreaName            string    `firestore:"area_name"`
	Description         string    `firestore:"description"`
	CausedBy            string    `firestore:"caused_by"`
	Consequences        string    `firestore:"consequences"`
	RiskOwner           string    `firestore:"risk_owner"`
	RiskCoordinatorName string    `firestore:"risk_coordinator_name"`
	InherentProbability string    `firestore:"inherent_probability"`
	InherentImpact      string    `firestore:"inherent_impact"`
	InherentRating      string    `firestore:"inherent_rating"`
	Controls            string    `firestore:"controls"`
	ControlOwner        string    `firestore:"control_owner"`
	ResidualProbability string    `firestore:"residual_probability"`
	ResidualImpact      string    `firestore:"residual_impact"`
	ResidualRating      string    `firestore:"residual_rating"`
	CreatedAt           time.Time `firestore:"created_at"`
	UpdatedAt           time.Time `firestore:"updated_at"`
	UpdatedBy           string    `firestore:"updated_by"`
}

func toRiskDocument(r *model.Risk) *riskDocument {
	return &riskDocument{
		ID:                  r.ID,
		ReferenceID:         r.ReferenceID,
		AreaName:            r.AreaName,
		Description:         r.Description,
		CausedBy:            r.CausedBy,
		Consequences:        r.Consequences,
		RiskOwner:           r.RiskOwner,
		RiskCoordinatorName: r.RiskCoordinatorName,
		InherentProbability: r.InherentProbability.String(),
		InherentImpact:      r.InherentImpact.String(),
		InherentRating:      r.InherentRating.String(),
		Controls:            r.Controls,
		ControlOwner:        r.ControlOwner,
		ResidualProbability: r.ResidualProbability.String(),
		ResidualImpact:      r.ResidualImpact.String(),
		ResidualRating:      r.ResidualRating.String(),
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
		UpdatedBy:           r.UpdatedBy,
	}
}

func (d *riskDocument) toModel() *model.Risk {
	return &model.Risk{
		ID:                  d.ID,
		ReferenceID:         d.ReferenceID,
		AreaName:            d.AreaName,
		Description:         d.Description,
		CausedBy:            d.CausedBy,
		Consequences:        d.Consequences,
		RiskOwner:           d.RiskOwner,
		RiskCoordinatorName: d.RiskCoordinatorName,
		InherentProbability: types.Level(d.InherentProbability),
		InherentImpact:      types.Level(d.InherentImpact),
		InherentRating:      types.Rating(d.InherentRating),
		Controls:            d.Controls,
		ControlOwner:        d.ControlOwner,
		ResidualProbability: types.Level(d.ResidualProbability),
		ResidualImpact:      types.Level(d.ResidualImpact),
		ResidualRating:      types.Rating(d.ResidualRating),
		CreatedAt:           d.CreatedAt,
		UpdatedAt:           d.UpdatedAt,
		UpdatedBy:           d.UpdatedBy,
	}
}

type riskRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newRiskRepository(client *firestore.Client) *riskRepository {
	return &riskRepository{
		client:           client,
		collectionPrefix: "",
	}
}

func (r *riskRepository) risksCollection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_" + RisksCollection
	}
	return RisksCollection
}

func (r *riskRepository) counterCollection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_counters"
	}
	return "counters"
}

func (r *riskRepository) riskCounterDoc() string {
	return "risk_counter"
}

func (r *riskRepository) getNextID(ctx context.Context) (int64, error) {
	counterRef := r.client.Collection(r.counterCollection()).Doc(r.riskCounterDoc())

	var nextID int64
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(counterRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				nextID = 1
				return tx.Set(counterRef, map[string]interface{}{
					"value": nextID,
				})
			}
			return goerr.Wrap(err, "failed to get counter")
		}

		currentValue, err := doc.DataAt("value")
		if err != nil {
			return goerr.Wrap(err, "failed to get counter value")
		}

		current, ok := currentValue.(int64)
		if !ok {
			return goerr.New("unexpected counter type", goerr.V("value", currentValue))
		}
		nextID = current + 1
		return tx.Update(counterRef, []firestore.Update{
			{Path: "value", Value: nextID},
		})
	})

	if err != nil {
		return 0, goerr.Wrap(err, "failed to get next ID")
	}

	return nextID, nil
}

func (r *riskRepository) Exists(ctx context.Context, referenceID string) (bool, error) {
	_, err := r.client.Collection(r.risksCollection()).Doc(referenceID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return false, nil
		}
		return false, goerr.Wrap(err, "failed to check risk", goerr.V("reference_id", referenceID))
	}
	return true, nil
}

func (r *riskRepository) Create(ctx context.Context, risk *model.Risk) (*model.CreateRiskResult, error) {
	if risk.ReferenceID == "" {
		return nil, goerr.New("reference ID is required")
	}

	id, err := r.getNextID(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	doc := toRiskDocument(risk)
	doc.ID = id
	doc.CreatedAt = now
	doc.UpdatedAt = now

	docRef := r.client.Collection(r.risksCollection()).Doc(risk.ReferenceID)
	if _, err := docRef.Create(ctx, doc); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return &model.CreateRiskResult{Duplicate: true}, nil
		}
		return nil, goerr.Wrap(err, "failed to create risk", goerr.V("reference_id", risk.ReferenceID))
	}

	return &model.CreateRiskResult{Risk: doc.toModel()}, nil
}

func (r *riskRepository) getDocument(ctx context.Context, id int64) (*riskDocument, error) {
	docs, err := r.client.Collection(r.risksCollection()).
		Where("id", "==", id).
		Limit(1).
		Documents(ctx).
		GetAll()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get risk", goerr.V("id", id))
	}
	if len(docs) == 0 {
		return nil, goerr.Wrap(ErrNotFound, "risk not found", goerr.V("id", id))
	}

	var riskDoc riskDocument
	if err := docs[0].DataTo(&riskDoc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal risk", goerr.V("id", id))
	}
	return &riskDoc, nil
}

func (r *riskRepository) Get(ctx context.Context, id int64) (*model.Risk, error) {
	doc, err := r.getDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	return doc.toModel(), nil
}

func (r *riskRepository) collect(iter *firestore.DocumentIterator) ([]*model.Risk, error) {
	defer iter.Stop()

	var risks []*model.Risk
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate risks")
		}

		var riskDoc riskDocument
		if err := doc.DataTo(&riskDoc); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal risk", goerr.V("doc_id", doc.Ref.ID))
		}
		risks = append(risks, riskDoc.toModel())
	}

	return risks, nil
}

func (r *riskRepository) List(ctx context.Context) ([]*model.Risk, error) {
	iter := r.client.Collection(r.risksCollection()).
		OrderBy("created_at", firestore.Desc).
		Documents(ctx)

	risks, err := r.collect(iter)
	if err != nil {
		return nil, err
	}
	sortNewestFirst(risks)
	return risks, nil
}

func (r *riskRepository) ListByDescriptionPrefix(ctx context.Context, prefix string) ([]*model.Risk, error) {
	// prefix range scan: [prefix, prefix + highest BMP code point)
	iter := r.client.Collection(r.risksCollection()).
		Where("description", ">=", prefix).
		Where("description", "<", prefix+"\uf8ff").
		OrderBy("description", firestore.Asc).
		OrderBy("created_at", firestore.Desc).
		Documents(ctx)

	risks, err := r.collect(iter)
	if err != nil {
		return nil, err
	}
	sortNewestFirst(risks)
	return risks, nil
}

func (r *riskRepository) Update(ctx context.Context, risk *model.Risk) (*model.Risk, error) {
	existing, err := r.getDocument(ctx, risk.ID)
	if err != nil {
		return nil, err
	}

	updated := toRiskDocument(risk)
	updated.ID = existing.ID
	updated.ReferenceID = existing.ReferenceID
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	docRef := r.client.Collection(r.risksCollection()).Doc(existing.ReferenceID)
	if _, err := docRef.Set(ctx, updated); err != nil {
		return nil, goerr.Wrap(err, "failed to update risk", goerr.V("id", risk.ID))
	}

	return updated.toModel(), nil
}

func (r *riskRepository) DeleteAll(ctx context.Context) (int, error) {
	refs, err := r.client.Collection(r.risksCollection()).DocumentRefs(ctx).GetAll()
	if err != nil {
		return 0, goerr.Wrap(err, "failed to list risk documents")
	}
	if len(refs) == 0 {
		return 0, nil
	}

	bw := r.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(refs))
	for _, ref := range refs {
		job, err := bw.Delete(ref)
		if err != nil {
			bw.End()
			return 0, goerr.Wrap(err, "failed to enqueue risk deletion", goerr.V("doc_id", ref.ID))
		}
		jobs = append(jobs, job)
	}
	bw.End()

	deleted := 0
	for i, job := range jobs {
		if _, err := job.Results(); err != nil {
			return deleted, goerr.Wrap(err, "failed to delete risk", goerr.V("doc_id", refs[i].ID))
		}
		deleted++
	}

	return deleted, nil
}

func sortNewestFirst(risks []*model.Risk) {
	sort.SliceStable(risks, func(i, j int) bool {
		if !risks[i].CreatedAt.Equal(risks[j].CreatedAt) {
			return risks[i].CreatedAt.After(risks[j].CreatedAt)
		}
		return risks[i].ID > risks[j].ID
	})
}
