package geodb

import (
	"net/url"
	"sync"
	"testing"

	"geo-api/internal/fulltext"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type SearchSuite struct {
	suite.Suite
	db *DB
	c1 Record
	c2 Record
	c3 Record
}

func TestSearchSuite(t *testing.T) {
	suite.Run(t, new(SearchSuite))
}

func (s *SearchSuite) SetupTest() {
	s.c1 = Record{Name: "abc", Code: "12345", PostalCodes: []string{"11111", "22222"}, Boundary: square(-10, -10, 0, 0)}
	s.c2 = Record{Name: "efg", Code: "23456", PostalCodes: []string{"11111"}, Boundary: square(-10, 0, 0, 10)}
	s.c3 = Record{Name: "efg", Code: "67890", PostalCodes: []string{"11111"}, Boundary: square(0, 0, 10, 10)}
	db, err := Open(Options{Records: []Record{s.c1, s.c2, s.c3}})
	s.Require().NoError(err)
	s.db = db
}

func withoutScore(rs []Record) []Record {
	out := make([]Record, len(rs))
	for i, r := range rs {
		r.Score = 0
		out[i] = r
	}
	return out
}

func (s *SearchSuite) TestSimpleCriteria() {
	got, err := s.db.Search(Criteria{Code: Str("12345")})
	s.Require().NoError(err)
	s.Equal([]Record{s.c1}, got)
}

func (s *SearchSuite) TestUnknownCode() {
	got, err := s.db.Search(Criteria{Code: Str("00000")})
	s.Require().NoError(err)
	s.NotNil(got)
	s.Empty(got)
}

func (s *SearchSuite) TestDisjointCriteria() {
	got, err := s.db.Search(Criteria{Code: Str("23456"), PostalCode: Str("22222")})
	s.Require().NoError(err)
	s.Equal([]Record{}, got)
}

func (s *SearchSuite) TestIntersectingCriteriaOneRecord() {
	got, err := s.db.Search(Criteria{Code: Str("23456"), PostalCode: Str("11111")})
	s.Require().NoError(err)
	s.Equal([]Record{s.c2}, got)
}

func (s *SearchSuite) TestIntersectingCriteriaKeepsScores() {
	got, err := s.db.Search(Criteria{Name: Str("efg"), PostalCode: Str("11111")})
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal([]Record{s.c2, s.c3}, withoutScore(got))
	s.Greater(got[0].Score, 0.0)
	s.InDelta(got[0].Score, got[1].Score, 1e-12)
}

func (s *SearchSuite) TestAllCriteria() {
	got, err := s.db.Search(Criteria{
		Name:       Str("efg"),
		Code:       Str("67890"),
		PostalCode: Str("11111"),
		Longitude:  Float(5),
		Latitude:   Float(5),
	})
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(s.c3, withoutScore(got)[0])
	s.Greater(got[0].Score, 0.0)
}

func (s *SearchSuite) TestSinglePredicateKeepsRanking() {
	got, err := s.db.Search(Criteria{Name: Str("efg")})
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal("23456", got[0].Code)
	s.Equal("67890", got[1].Code)
	s.Greater(got[0].Score, 0.0)
}

func (s *SearchSuite) TestIntersectionOrderFollowsFirstPartial() {
	// 第一个部分结果为名称检索，顺序与排名一致
	got, err := s.db.Search(Criteria{Name: Str("efg"), PostalCode: Str("11111")})
	s.Require().NoError(err)
	s.Equal([]string{"23456", "67890"}, []string{got[0].Code, got[1].Code})

	// 第一个部分结果为邮编桶，顺序为插入顺序，且不带 Score
	got, err = s.db.Search(Criteria{PostalCode: Str("11111"), Latitude: Float(5), Longitude: Float(5)})
	s.Require().NoError(err)
	s.Equal([]Record{s.c3}, got)
}

func (s *SearchSuite) TestSpatialOnly() {
	got, err := s.db.Search(Criteria{Latitude: Float(-5), Longitude: Float(-5)})
	s.Require().NoError(err)
	s.Equal([]Record{s.c1}, got)

	got, err = s.db.Search(Criteria{Latitude: Float(50), Longitude: Float(50)})
	s.Require().NoError(err)
	s.Empty(got)
}

func (s *SearchSuite) TestNoCriteria() {
	got, err := s.db.Search(Criteria{})
	s.ErrorIs(err, ErrNoCriteria)
	s.Nil(got)
	s.True(IsCriteriaError(err))
}

func (s *SearchSuite) TestLatitudeWithoutLongitude() {
	_, err := s.db.Search(Criteria{Latitude: Float(5)})
	var pe *PredicateShapeError
	s.Require().ErrorAs(err, &pe)
	s.Equal(ParamLatitude, pe.Predicate)

	_, err = s.db.Search(Criteria{Code: Str("12345"), Longitude: Float(5)})
	s.Require().ErrorAs(err, &pe)
	s.Equal(ParamLongitude, pe.Predicate)
	s.True(IsCriteriaError(err))
}

func (s *SearchSuite) TestCoordinatesOutOfRange() {
	_, err := s.db.Search(Criteria{Latitude: Float(91), Longitude: Float(0)})
	var pe *PredicateShapeError
	s.Require().ErrorAs(err, &pe)
	s.Equal(ParamLatitude, pe.Predicate)

	_, err = s.db.Search(Criteria{Latitude: Float(0), Longitude: Float(-181)})
	s.Require().ErrorAs(err, &pe)
	s.Equal(ParamLongitude, pe.Predicate)
}

func (s *SearchSuite) TestIdempotent() {
	c := Criteria{Name: Str("efg"), PostalCode: Str("11111")}
	first, err := s.db.Search(c)
	s.Require().NoError(err)
	for i := 0; i < 3; i++ {
		again, err := s.db.Search(c)
		s.Require().NoError(err)
		s.Equal(first, again)
	}
}

func (s *SearchSuite) TestResultsDoNotAliasIndex() {
	got, err := s.db.Search(Criteria{Name: Str("efg")})
	s.Require().NoError(err)
	got[0].PostalCodes[0] = "99999"
	got[0].Name = "mutated"

	orig, ok := s.db.UniqueIndex().Get("23456")
	s.Require().True(ok)
	s.Equal(s.c2, orig)
	s.Zero(orig.Score)
	s.False(s.db.PostalIndex().Has("99999"))

	byCP := s.db.QueryByPostalCode("11111")
	byCP[0].PostalCodes[0] = "00000"
	s.Equal([]Record{s.c1, s.c2, s.c3}, s.db.QueryByPostalCode("11111"))
}

func (s *SearchSuite) TestMutatedGeometryDoesNotReachIndex() {
	got, err := s.db.Search(Criteria{Code: Str("67890")})
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	poly := got[0].Boundary.Coordinates.(orb.Polygon)
	for i := range poly[0] {
		poly[0][i] = orb.Point{50, 50}
	}

	byPoint, err := s.db.Search(Criteria{Latitude: Float(5), Longitude: Float(5)})
	s.Require().NoError(err)
	s.Equal([]Record{s.c3}, byPoint)

	orig, ok := s.db.UniqueIndex().Get("67890")
	s.Require().True(ok)
	s.Equal(s.c3.Boundary, orig.Boundary)
}

func TestOpenCopiesInputGeometry(t *testing.T) {
	in := Record{Code: "A", Boundary: square(-1, -1, 1, 1)}
	db := open(t, in)
	in.Boundary.Coordinates.(orb.Polygon)[0][0] = orb.Point{40, 40}

	r, ok := db.SpatialIndex().QueryPoint(0, 0)
	require.True(t, ok)
	assert.Equal(t, orb.Point{-1, -1}, r.Boundary.Coordinates.(orb.Polygon)[0][0])
}

func (s *SearchSuite) TestConcurrentSearch() {
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := s.db.Search(Criteria{Name: Str("efg"), PostalCode: Str("11111")})
			assert.NoError(s.T(), err)
			assert.Len(s.T(), got, 2)
		}()
	}
	wg.Wait()
}

func TestIntersectByCodeKeepsFirstPartialElement(t *testing.T) {
	parts := [][]Record{
		{{Code: "b", Score: 2}, {Code: "a", Score: 1}, {Code: "b", Score: 0.5}},
		{{Code: "a", Name: "other"}, {Code: "b", Name: "other"}},
	}
	got := intersectByCode(parts)
	assert.Equal(t, []Record{{Code: "b", Score: 2}, {Code: "a", Score: 1}}, got)

	assert.Equal(t, []Record{}, intersectByCode(nil))
	assert.Equal(t, []Record{}, intersectByCode([][]Record{{{Code: "a"}}, {}}))
}

// 文本与空间结构的替身，验证编排器只依赖能力契约
type stubText struct{ hits []fulltext.Hit }

func (s *stubText) Add(string, string)           {}
func (s *stubText) Search(string) []fulltext.Hit { return s.hits }

type stubLocator struct{ ref string }

func (s *stubLocator) Insert(string, orb.Geometry) error { return nil }
func (s *stubLocator) Locate(orb.Point) (string, bool)   { return s.ref, s.ref != "" }

func TestSearchWithStandInStructures(t *testing.T) {
	db, err := Open(Options{
		Records: []Record{
			{Code: "1", Name: "one", PostalCodes: []string{"p"}, Boundary: square(0, 0, 1, 1)},
			{Code: "2", Name: "two", PostalCodes: []string{"p"}, Boundary: square(2, 2, 3, 3)},
		},
		Text:    &stubText{hits: []fulltext.Hit{{Ref: "2", Score: 7}, {Ref: "ghost", Score: 5}, {Ref: "1", Score: 3}}},
		Locator: &stubLocator{ref: "1"},
	})
	require.NoError(t, err)

	got, err := db.Search(Criteria{Name: Str("anything")})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2", got[0].Code)
	assert.Equal(t, 7.0, got[0].Score)
	assert.Equal(t, "1", got[1].Code)
	assert.Equal(t, 3.0, got[1].Score)

	got, err = db.Search(Criteria{Name: Str("anything"), PostalCode: Str("p"), Latitude: Float(0), Longitude: Float(0)})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].Code)
	assert.Equal(t, 3.0, got[0].Score)
}

func TestParseCriteria(t *testing.T) {
	c, err := ParseCriteria(url.Values{"nom": {"Lyon"}, "codePostal": {"69001"}, "lat": {"45.75"}, "lon": {" 4.85 "}})
	require.NoError(t, err)
	require.NotNil(t, c.Name)
	assert.Equal(t, "Lyon", *c.Name)
	assert.Equal(t, "69001", *c.PostalCode)
	assert.Nil(t, c.Code)
	assert.Equal(t, 45.75, *c.Latitude)
	assert.Equal(t, 4.85, *c.Longitude)
	assert.Equal(t, 3, c.Count())
	assert.NoError(t, c.Validate())

	_, err = ParseCriteria(url.Values{"lat": {"north"}})
	var pe *PredicateShapeError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ParamLatitude, pe.Predicate)

	c, err = ParseCriteria(url.Values{})
	require.NoError(t, err)
	assert.ErrorIs(t, c.Validate(), ErrNoCriteria)
}

func TestCriteriaKeyIsCanonical(t *testing.T) {
	a, err := ParseCriteria(url.Values{"code": {"1"}, "nom": {"Saint Ouen"}})
	require.NoError(t, err)
	b := Criteria{Name: Str("Saint Ouen"), Code: Str("1")}
	assert.Equal(t, a.Key(), b.Key())
	assert.Equal(t, "nom=Saint+Ouen&code=1", b.Key())
	assert.NotEqual(t, b.Key(), Criteria{Name: Str("Saint Ouen")}.Key())
}
