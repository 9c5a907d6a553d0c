package model_test

import (
	"testing"
	"time"

	"github.com/okian/peri/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestProfileForm(t *testing.T) {
	Convey("Given a profile form in metric units", t, func() {
		form := model.ProfileForm{
			Name:         " Ana ",
			Age:          "52",
			HeightVal:    "168",
			HeightUnit:   "cm",
			WeightVal:    "72.5kg",
			WeightUnit:   "kg",
			Gender:       "female",
			Systolic:     "135",
			Diastolic:    "85",
			Cholesterol:  "2",
			Glucose:      "1",
			Smoking:      "1",
			Alcohol:      "0",
			PhysActivity: "yes",
			Conditions:   []string{"Hypertension"},
		}

		Convey("When converted", func() {
			p := form.Profile()

			Convey("Then numbers are parsed", func() {
				So(*p.Age, ShouldEqual, 52.0)
				So(*p.HeightCm, ShouldEqual, 168.0)
				So(*p.WeightKg, ShouldEqual, 72.5)
				So(*p.Systolic, ShouldEqual, 135.0)
				So(*p.Diastolic, ShouldEqual, 85.0)
				So(*p.Cholesterol, ShouldEqual, 2)
				So(*p.Glucose, ShouldEqual, 1)
			})

			Convey("Then flags are true only for \"1\"", func() {
				So(p.Smoking, ShouldBeTrue)
				So(p.Alcohol, ShouldBeFalse)
				So(p.Active, ShouldBeFalse)
			})

			Convey("Then text fields are trimmed", func() {
				So(p.Name, ShouldEqual, "Ana")
				So(p.Conditions, ShouldResemble, []string{"Hypertension"})
			})

			Convey("Then BMI is available", func() {
				bmi, ok := p.BMI()
				So(ok, ShouldBeTrue)
				So(bmi, ShouldAlmostEqual, 72.5/(1.68*1.68), 1e-9)
			})
		})
	})

	Convey("Given a profile form in imperial units", t, func() {
		form := model.ProfileForm{
			HeightUnit: "ft",
			HeightFt:   "5",
			HeightIn:   "6",
			WeightVal:  "154",
			WeightUnit: "lbs",
		}

		Convey("When converted", func() {
			p := form.Profile()

			Convey("Then height and weight are metric", func() {
				So(*p.HeightCm, ShouldAlmostEqual, 5*30.48+6*2.54, 1e-9)
				So(*p.WeightKg, ShouldAlmostEqual, 154/2.205, 1e-9)
			})
		})
	})

	Convey("Given a form with malformed numbers", t, func() {
		form := model.ProfileForm{Age: "abc", Systolic: "", Cholesterol: "high", HeightUnit: "ft"}

		Convey("When converted", func() {
			p := form.Profile()

			Convey("Then the fields are absent", func() {
				So(p.Age, ShouldBeNil)
				So(p.Systolic, ShouldBeNil)
				So(p.Cholesterol, ShouldBeNil)
				So(p.HeightCm, ShouldBeNil)
				So(p.HasAge(), ShouldBeFalse)
				So(p.HasSystolic(), ShouldBeFalse)
				_, ok := p.BMI()
				So(ok, ShouldBeFalse)
			})
		})
	})
	Convey("Given ordinal fields written loosely", t, func() {
		form := model.ProfileForm{Cholesterol: "1e5", Glucose: " 2.9 (borderline)"}

		Convey("When converted", func() {
			p := form.Profile()

			Convey("Then only the leading digits count", func() {
				So(*p.Cholesterol, ShouldEqual, 1)
				So(*p.Glucose, ShouldEqual, 2)
			})
		})

		Convey("When a value does not fit an int", func() {
			p := model.ProfileForm{Cholesterol: "1e30", Glucose: "99999999999999999999"}.Profile()

			Convey("Then it is absent or read as its leading digits", func() {
				So(*p.Cholesterol, ShouldEqual, 1)
				So(p.Glucose, ShouldBeNil)
			})
		})
	})
}

func TestSymptomLog(t *testing.T) {
	Convey("Given an empty symptom log", t, func() {
		log := model.NewSymptomLog()
		at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

		Convey("When a symptom is recorded twice", func() {
			log.Record(model.HotFlashes, model.SeverityMild, model.FrequencyWeekly, at)
			log.Record(model.HotFlashes, model.SeveritySevere, model.FrequencyOnceDaily, at.Add(time.Hour))

			Convey("Then the latest write wins", func() {
				e, ok := log.Entry(model.HotFlashes)
				So(ok, ShouldBeTrue)
				So(e.Severity, ShouldEqual, model.SeveritySevere)
				So(e.Frequency, ShouldEqual, model.FrequencyOnceDaily)
				So(e.UpdatedAt, ShouldEqual, at.Add(time.Hour))
			})
		})

		Convey("When severity and frequency are edited separately", func() {
			log.SetSeverity(model.Mood, model.SeverityModerate, at)
			log.SetFrequency(model.Mood, model.FrequencyRarely, at)

			Convey("Then both fields are kept", func() {
				e, _ := log.Entry(model.Mood)
				So(e.Severity, ShouldEqual, model.SeverityModerate)
				So(e.Frequency, ShouldEqual, model.FrequencyRarely)
			})
		})

		Convey("When a symptom is denied", func() {
			log.Record(model.Sleep, model.SeverityNone, model.FrequencyUnset, at)
			log.Record(model.Joints, model.SeverityMild, model.FrequencyUnset, at)

			Convey("Then it is logged but not active", func() {
				_, ok := log.Entry(model.Sleep)
				So(ok, ShouldBeTrue)
				So(log.Active(), ShouldEqual, 1)
			})
		})

		Convey("When the log is cloned", func() {
			log.Record(model.Palpitations, model.SeverityMild, model.FrequencyWeekly, at)
			c := log.Clone()
			c.Record(model.Palpitations, model.SeveritySevere, model.FrequencyWeekly, at)

			Convey("Then the original is unchanged", func() {
				e, _ := log.Entry(model.Palpitations)
				So(e.Severity, ShouldEqual, model.SeverityMild)
			})
		})
	})

	Convey("Given a nil log", t, func() {
		var log model.SymptomLog

		Convey("Then lookups report absence", func() {
			_, ok := log.Entry(model.Fatigue)
			So(ok, ShouldBeFalse)
			So(log.Active(), ShouldEqual, 0)
		})
	})
}

func TestCatalog(t *testing.T) {
	Convey("Given the symptom catalog", t, func() {
		c := model.Catalog()

		Convey("Then it holds 15 symptoms starting with hot flashes", func() {
			So(c, ShouldHaveLength, 15)
			So(c[0].ID, ShouldEqual, model.HotFlashes)
			So(c[14].ID, ShouldEqual, model.SkinHair)
		})

		Convey("Then ids resolve to names", func() {
			So(model.Palpitations.Name(), ShouldEqual, "Heart Palpitations")
			So(model.SymptomID("unknown").Valid(), ShouldBeFalse)
			So(model.SymptomID("unknown").Name(), ShouldEqual, "unknown")
		})

		Convey("Then severities parse with short aliases", func() {
			s, ok := model.ParseSeverity("Mod")
			So(ok, ShouldBeTrue)
			So(s, ShouldEqual, model.SeverityModerate)
			s, ok = model.ParseSeverity("sev")
			So(ok, ShouldBeTrue)
			So(s, ShouldEqual, model.SeveritySevere)
			_, ok = model.ParseSeverity("sort of")
			So(ok, ShouldBeFalse)
			So(model.SeveritySevere.Rank(), ShouldBeGreaterThan, model.SeverityMild.Rank())
		})
	})
}
