package model

import "strconv"

// ChangeType は「更新の表示」列 (14列目) です。
type ChangeType int

const (
	ChangeTypeNotChanged ChangeType = 0 // 変更なし
	ChangeTypeModified   ChangeType = 1 // 変更あり
	ChangeTypeRemoved    ChangeType = 2 // 廃止 (廃止データのみ使用)
)

var changeTypeLabels = map[ChangeType]string{
	ChangeTypeNotChanged: "変更なし",
	ChangeTypeModified:   "変更あり",
	ChangeTypeRemoved:    "廃止",
}

func (t ChangeType) String() string {
	if s, ok := changeTypeLabels[t]; ok {
		return s
	}
	return strconv.Itoa(int(t))
}

// ParseChangeType は列の値を ChangeType に変換します。
// 未知の値の場合は ChangeTypeNotChanged と false を返します。
func ParseChangeType(s string) (ChangeType, bool) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return ChangeTypeNotChanged, false
	}
	t := ChangeType(n)
	if _, ok := changeTypeLabels[t]; !ok {
		return ChangeTypeNotChanged, false
	}
	return t, true
}

// ChangeReason は「変更理由」列 (15列目) です。
type ChangeReason int

const (
	ChangeReasonNotChanged                    ChangeReason = 0 // 変更なし
	ChangeReasonMunicipalityMerged            ChangeReason = 1 // 市政・区政・町政・分区・政令指定都市施行
	ChangeReasonResidentialAddressImplemented ChangeReason = 2 // 住居表示の実施
	ChangeReasonLandReadjustment              ChangeReason = 3 // 区画整理
	ChangeReasonPostalDistrictAdjusted        ChangeReason = 4 // 郵便区調整等
	ChangeReasonCorrected                     ChangeReason = 5 // 訂正
	ChangeReasonRemoved                       ChangeReason = 6 // 廃止
)

var changeReasonLabels = map[ChangeReason]string{
	ChangeReasonNotChanged:                    "変更なし",
	ChangeReasonMunicipalityMerged:            "市政・区政・町政・分区・政令指定都市施行",
	ChangeReasonResidentialAddressImplemented: "住居表示の実施",
	ChangeReasonLandReadjustment:              "区画整理",
	ChangeReasonPostalDistrictAdjusted:        "郵便区調整等",
	ChangeReasonCorrected:                     "訂正",
	ChangeReasonRemoved:                       "廃止",
}

func (r ChangeReason) String() string {
	if s, ok := changeReasonLabels[r]; ok {
		return s
	}
	return strconv.Itoa(int(r))
}

// ParseChangeReason は列の値を ChangeReason に変換します。
// 未知の値の場合は ChangeReasonNotChanged と false を返します。
func ParseChangeReason(s string) (ChangeReason, bool) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return ChangeReasonNotChanged, false
	}
	r := ChangeReason(n)
	if _, ok := changeReasonLabels[r]; !ok {
		return ChangeReasonNotChanged, false
	}
	return r, true
}

// PostalRecord は KEN_ALL.CSV の1行 (町域の結合後を含む) を表します。
type PostalRecord struct {
	CityCode string `db:"city_code" json:"cityCode"` // 全国地方公共団体コード
	ZipCode5 string `db:"zip_code5" json:"zipCode5"` // 旧郵便番号
	ZipCode7 string `db:"zip_code7" json:"zipCode7"` // 郵便番号

	PrefectureKana string `db:"prefecture_kana" json:"prefectureKana"` // 半角カタカナ
	CityKana       string `db:"city_kana" json:"cityKana"`
	LocalityKana   string `db:"locality_kana" json:"localityKana"`

	Prefecture string `db:"prefecture" json:"prefecture"`
	City       string `db:"city" json:"city"`
	Locality   string `db:"locality" json:"locality"`

	LocalityHasMultipleZipCodes  bool `db:"locality_has_multiple_zip_codes" json:"localityHasMultipleZipCodes"`   // 一町域が二以上の郵便番号で表される場合
	IsPartitionedBySublocality   bool `db:"is_partitioned_by_sublocality" json:"isPartitionedBySublocality"`     // 小字毎に番地が起番されている町域
	HasChome                     bool `db:"has_chome" json:"hasChome"`                                           // 丁目を有する町域
	ZipCodeHasMultipleLocalities bool `db:"zip_code_has_multiple_localities" json:"zipCodeHasMultipleLocalities"` // 一つの郵便番号で二以上の町域を表す場合

	ChangeType   ChangeType   `db:"change_type" json:"changeType"`
	ChangeReason ChangeReason `db:"change_reason" json:"changeReason"`

	// IsDefault は町域が「以下に掲載がない場合」だったことを示します。
	IsDefault bool `db:"is_default" json:"isDefault"`
}

// SublocalityRecord は町域の括弧書きを展開した1件です。
type SublocalityRecord struct {
	PostalRecord

	Sublocality     string `db:"sublocality" json:"sublocality"`
	SublocalityKana string `db:"sublocality_kana" json:"sublocalityKana"`

	ExceptFor     string `db:"except_for" json:"exceptFor"`
	ExceptForKana string `db:"except_for_kana" json:"exceptForKana"`
}
