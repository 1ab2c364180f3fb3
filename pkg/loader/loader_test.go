package loader

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"press-transcripts/pkg/content"
	"press-transcripts/pkg/db"
	"press-transcripts/pkg/domain"
	"press-transcripts/pkg/grammar"
)

const fixture = "../content/testdata/regpk_2024-02-01.html"

// lastStatement is the tail of the fixture: the BMF answer and the list that merges into it.
const lastStatement = "<p>Müller-Schmidt (BMF): Dazu kann ich nichts sagen.</p>\n<ul><li>Erster Punkt</li><li>Zweiter Punkt</li></ul>\n"

func loadFixture(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(fixture)
	require.NoError(t, err)
	return string(data)
}

func newTestStore(t *testing.T) *db.Store {
	t.Helper()
	ctx := context.Background()

	client := db.NewSQLClient(db.SQLConfig{Driver: db.DriverSQLite, DSN: ":memory:"})
	require.NoError(t, client.Connect(ctx))
	t.Cleanup(func() { _ = client.Close() })

	store := db.NewStore(client, zaptest.NewLogger(t))
	require.NoError(t, store.Migrate(ctx))

	bmf := &domain.Organization{Name: "Bundesministerium der Finanzen", OtherNames: "BMF, Finanzministerium", Jurisdiction: "bund"}
	require.NoError(t, store.CreateOrganization(ctx, bmf))
	return store
}

func newTestLoader(t *testing.T, store *db.Store) *Loader {
	return New(store, WithLogger(zaptest.NewLogger(t)))
}

func TestCreateAndLoadFixture(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	report, err := newTestLoader(t, store).CreateAndLoad(ctx, loadFixture(t), "", "regpk_2024-02-01.html")
	require.NoError(t, err)

	assert.True(t, report.Created)
	assert.False(t, report.Updated)
	assert.Equal(t, "Regierungspressekonferenz vom 01.02.2024", report.Title)
	assert.Equal(t, "regierungspressekonferenz-vom-01-02-2024", report.Slug)
	assert.Equal(t, 2, report.Sections)
	assert.Equal(t, 7, report.Speeches)
	assert.Equal(t, []string{"SRS Büchner", "Müller-Schmidt (BMF)"}, report.Roster)

	pc, err := store.GetConference(ctx, report.ConferenceID)
	require.NoError(t, err)
	assert.Equal(t, "regpk_2024-02-01.html", pc.SourceFile)
	assert.Equal(t, "Kabinettssitzung\nReise des Bundeskanzlers\nLage im Nahen Osten", pc.Description)

	speeches, err := store.ListSpeeches(ctx, pc.ID)
	require.NoError(t, err)
	require.Len(t, speeches, 7)
	for i, sp := range speeches {
		assert.Equal(t, i, sp.Order, "speech orders are contiguous")
	}

	opening := speeches[0]
	assert.Equal(t, domain.SpeechKindSpeech, opening.Kind)
	assert.Nil(t, opening.Speaker)

	welcome := speeches[1]
	require.NotNil(t, welcome.Speaker)
	assert.Equal(t, "SRS Büchner", welcome.Speaker.String())
	assert.Equal(t, "Guten Tag, meine Damen und Herren!\n\nDas Kabinett hat heute getagt.", welcome.Text)

	question := speeches[2]
	assert.Equal(t, domain.SpeechKindQuestion, question.Kind)
	assert.Equal(t, "Frage", question.Label)
	assert.NotEqual(t, opening.SectionID, question.SectionID, "a fresh question opens a section")

	answer := speeches[3]
	require.NotNil(t, answer.Speaker)
	assert.Equal(t, welcome.Speaker.ID, answer.Speaker.ID, "the same marker resolves to the same speaker")

	assert.Equal(t, domain.SpeechKindSideNote, speeches[4].Kind)
	assert.Equal(t, "Heiterkeit", speeches[4].Text)

	followUp := speeches[5]
	assert.Equal(t, domain.SpeechKindFollowUp, followUp.Kind)
	assert.Equal(t, "Zusatzfrage", followUp.Label)
	assert.Equal(t, question.SectionID, followUp.SectionID, "a follow-up stays in its section")

	ministry := speeches[6]
	require.NotNil(t, ministry.Speaker)
	require.NotNil(t, ministry.Speaker.OrganizationRef)
	assert.Equal(t, "Bundesministerium der Finanzen", ministry.Speaker.OrganizationRef.Name)
	assert.True(t, strings.HasPrefix(ministry.Text, "Dazu kann ich nichts sagen."))
	assert.Contains(t, ministry.Text, "Zweiter Punkt")

	topics, err := store.ConferenceTopics(ctx, pc.ID)
	require.NoError(t, err)
	require.Len(t, topics, 3)
	assert.Equal(t, "kabinettssitzung", topics[0].Slug)
}

func TestParseAndLoadIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	loader := newTestLoader(t, store)
	raw := loadFixture(t)

	first, err := loader.CreateAndLoad(ctx, raw, "bpk", "")
	require.NoError(t, err)
	before, err := store.ListSections(ctx, first.ConferenceID)
	require.NoError(t, err)

	pc, err := store.GetConference(ctx, first.ConferenceID)
	require.NoError(t, err)
	second, err := loader.ParseAndLoad(ctx, raw, pc)
	require.NoError(t, err)
	assert.True(t, second.Updated)
	assert.Zero(t, second.Trimmed)
	assert.Equal(t, first.Slug, second.Slug)

	after, err := store.ListSections(ctx, first.ConferenceID)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	third, err := loader.CreateAndLoad(ctx, raw, "bpk", "")
	require.NoError(t, err)
	assert.False(t, third.Created)
	assert.Equal(t, first.ConferenceID, third.ConferenceID)
}

func TestConcurrentLoadsOfOneConference(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	loader := newTestLoader(t, store)
	raw := loadFixture(t)

	p, err := loader.Prepare(raw)
	require.NoError(t, err)
	cat, err := store.GetOrCreateCategory(ctx, DefaultCategory, "")
	require.NoError(t, err)
	pc, _, err := store.GetOrCreateConference(ctx, cat.ID, p.Date)
	require.NoError(t, err)

	const loads = 2
	reports := make([]*Report, loads)
	errs := make([]error, loads)
	var wg sync.WaitGroup
	for i := 0; i < loads; i++ {
		wg.Add(1)
		go func(i int, pc domain.PressConference) {
			defer wg.Done()
			reports[i], errs[i] = loader.ParseAndLoad(ctx, raw, &pc)
		}(i, *pc)
	}
	wg.Wait()

	for i := range errs {
		require.NoError(t, errs[i])
	}
	// Loads are serialized: exactly one of them saw the other's transcript.
	assert.NotEqual(t, reports[0].Updated, reports[1].Updated)

	speeches, err := store.ListSpeeches(ctx, pc.ID)
	require.NoError(t, err)
	require.Len(t, speeches, 7)
	for i, sp := range speeches {
		assert.Equal(t, i, sp.Order, "speech orders are contiguous")
	}

	concurrent, err := store.ListSections(ctx, pc.ID)
	require.NoError(t, err)
	_, err = loader.ParseAndLoad(ctx, raw, pc)
	require.NoError(t, err)
	single, err := store.ListSections(ctx, pc.ID)
	require.NoError(t, err)
	assert.Equal(t, single, concurrent)
}

func TestReloadShortenedTranscript(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	loader := newTestLoader(t, store)
	raw := loadFixture(t)
	require.Contains(t, raw, lastStatement)

	report, err := loader.CreateAndLoad(ctx, raw, "bpk", "")
	require.NoError(t, err)
	require.Equal(t, 7, report.Speeches)
	speeches, err := store.ListSpeeches(ctx, report.ConferenceID)
	require.NoError(t, err)
	ministrySpeaker := speeches[6].Speaker

	pc, err := store.GetConference(ctx, report.ConferenceID)
	require.NoError(t, err)
	report, err = loader.ParseAndLoad(ctx, strings.Replace(raw, lastStatement, "", 1), pc)
	require.NoError(t, err)
	assert.Equal(t, 6, report.Speeches)
	assert.Len(t, pc.Sections, 2)

	speeches, err = store.ListSpeeches(ctx, report.ConferenceID)
	require.NoError(t, err)
	require.Len(t, speeches, 6)
	assert.Equal(t, domain.SpeechKindFollowUp, speeches[5].Kind)

	// Speakers outlive the speeches that referenced them.
	_, err = store.GetSpeaker(ctx, ministrySpeaker.ID)
	assert.NoError(t, err)
}

func TestFatalErrorsLeaveConferenceUntouched(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	loader := newTestLoader(t, store)

	report, err := loader.CreateAndLoad(ctx, loadFixture(t), "bpk", "")
	require.NoError(t, err)

	tests := []struct {
		name  string
		raw   string
		check func(t *testing.T, err error)
	}{
		{
			name: "missing body",
			raw:  `<html><body><p class="date">1. Februar 2024</p></body></html>`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, content.ErrMissingBody)
			},
		},
		{
			name: "missing date",
			raw:  `<html><body><div class="basepage_pages"><p>Frage: Wann?</p></div></body></html>`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, content.ErrMissingDate)
			},
		},
		{
			name: "empty transcript",
			raw:  `<html><body><p class="date">1. Februar 2024</p><div class="basepage_pages"></div></body></html>`,
			check: func(t *testing.T, err error) {
				var matchErr *grammar.MatchError
				assert.True(t, errors.As(err, &matchErr), "got %v", err)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pc, err := store.GetConference(ctx, report.ConferenceID)
			require.NoError(t, err)
			before := *pc

			_, err = loader.ParseAndLoad(ctx, tt.raw, pc)
			require.Error(t, err)
			tt.check(t, err)
			assert.Equal(t, before, *pc)

			stored, err := store.GetConference(ctx, report.ConferenceID)
			require.NoError(t, err)
			assert.Equal(t, report.Slug, stored.Slug)

			speeches, err := store.ListSpeeches(ctx, report.ConferenceID)
			require.NoError(t, err)
			assert.Len(t, speeches, 7)
		})
	}
}

func TestSlugCollisionGetsSuffix(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	loader := newTestLoader(t, store)
	raw := loadFixture(t)

	first, err := loader.CreateAndLoad(ctx, raw, "bpk", "")
	require.NoError(t, err)
	second, err := loader.CreateAndLoad(ctx, raw, "sommer-pk", "")
	require.NoError(t, err)

	assert.NotEqual(t, first.ConferenceID, second.ConferenceID)
	assert.Equal(t, "regierungspressekonferenz-vom-01-02-2024", first.Slug)
	assert.Equal(t, "regierungspressekonferenz-vom-01-02-2024-1", second.Slug)

	// Reloading keeps the suffix instead of colliding with itself.
	pc, err := store.GetConference(ctx, second.ConferenceID)
	require.NoError(t, err)
	again, err := loader.ParseAndLoad(ctx, raw, pc)
	require.NoError(t, err)
	assert.Equal(t, second.Slug, again.Slug)
}

func TestPrepare(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	loader := New(nil, WithLocation(berlin), WithTitlePrefix("RegPK vom"))

	p, err := loader.Prepare(loadFixture(t))
	require.NoError(t, err)

	assert.True(t, p.Date.Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, berlin)))
	assert.Len(t, p.Topics, 3)
	assert.NotEmpty(t, p.PageTitle)
	assert.Equal(t, grammar.Speech, p.Tokens[0].Kind)
	assert.True(t, strings.HasSuffix(p.Body, "\n\n"))
	assert.Equal(t, "RegPK vom 01.02.2024", loader.Title(p.Date))
}

func TestLoadRequiresConference(t *testing.T) {
	loader := New(nil)
	_, err := loader.Load(context.Background(), &Prepared{}, &domain.PressConference{})
	assert.Error(t, err)
}
