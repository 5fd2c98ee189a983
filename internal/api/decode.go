package api

import (
	"errors"
	"fmt"

	"clan-battles/internal/domain"

	"github.com/tidwall/gjson"
)

var errInvalidJSON = errors.New("invalid JSON")

// DecodeSchedule reads the /update payload. A missing provinces field is an
// empty list.
func DecodeSchedule(body []byte) ([]domain.RawProvince, error) {
	if !gjson.ValidBytes(body) {
		return nil, errInvalidJSON
	}

	list := gjson.GetBytes(body, "provinces")
	if !list.Exists() || list.Type == gjson.Null {
		return []domain.RawProvince{}, nil
	}
	if !list.IsArray() {
		return nil, fmt.Errorf("provinces: expected array, got %s", list.Type)
	}

	provinces := make([]domain.RawProvince, 0, len(list.Array()))
	list.ForEach(func(_, p gjson.Result) bool {
		provinces = append(provinces, decodeProvince(p))
		return true
	})
	return provinces, nil
}

func decodeProvince(p gjson.Result) domain.RawProvince {
	province := domain.RawProvince{
		ProvinceID:   p.Get("province_id").String(),
		ProvinceName: p.Get("province_name").String(),
		ArenaName:    p.Get("arena_name").String(),
		Server:       p.Get("server").String(),
		Mode:         p.Get("mode").String(),
		PrimeTime:    p.Get("prime_time").String(),
	}

	p.Get("rounds").ForEach(func(_, r gjson.Result) bool {
		province.Rounds = append(province.Rounds, domain.RawRound{
			Time:  r.Get("time").String(),
			Title: r.Get("title").String(),
			Participants: domain.Participants{
				A: decodeClan(r.Get("clan_a")),
				B: decodeClan(r.Get("clan_b")),
			},
		})
		return true
	})
	return province
}

// decodeClan accepts an absent or null field, a bare tag string, or an
// object carrying a tag.
func decodeClan(r gjson.Result) *domain.ClanRef {
	switch {
	case r.Type == gjson.String && r.Str != "":
		return &domain.ClanRef{Tag: r.Str}
	case r.IsObject():
		if tag := r.Get("tag").String(); tag != "" {
			return &domain.ClanRef{Tag: tag}
		}
	}
	return nil
}
