package report

import (
	"path"
	"strings"
)

// Role groups the 16 base types by their middle letters.
type Role string

const (
	RoleAnalyst  Role = "Analysts"
	RoleDiplomat Role = "Diplomats"
	RoleSentinel Role = "Sentinels"
	RoleExplorer Role = "Explorers"
)

var roleColors = map[Role]string{
	RoleAnalyst:  "#8867c0",
	RoleDiplomat: "#41c46c",
	RoleSentinel: "#4298b4",
	RoleExplorer: "#e4ae3a",
}

// Profile is the display metadata for a base type.
type Profile struct {
	BaseType string
	Nickname string
	Role     Role
	Color    string
	Image    string
}

type profileEntry struct {
	nickname string
	role     Role
}

var profiles = map[string]profileEntry{
	"INTJ": {"Architect", RoleAnalyst},
	"INTP": {"Logician", RoleAnalyst},
	"ENTJ": {"Commander", RoleAnalyst},
	"ENTP": {"Debater", RoleAnalyst},
	"INFJ": {"Advocate", RoleDiplomat},
	"INFP": {"Mediator", RoleDiplomat},
	"ENFJ": {"Protagonist", RoleDiplomat},
	"ENFP": {"Campaigner", RoleDiplomat},
	"ISTJ": {"Logistician", RoleSentinel},
	"ISFJ": {"Defender", RoleSentinel},
	"ESTJ": {"Executive", RoleSentinel},
	"ESFJ": {"Consul", RoleSentinel},
	"ISTP": {"Virtuoso", RoleExplorer},
	"ISFP": {"Adventurer", RoleExplorer},
	"ESTP": {"Entrepreneur", RoleExplorer},
	"ESFP": {"Entertainer", RoleExplorer},
}

const (
	fallbackNickname = "Result"
	fallbackColor    = "#333"
)

// LookupProfile returns display metadata for a type code such as "ENFJ-A".
// Unknown codes get a generic profile; the image path is always derived from
// the base type under imageDir.
func LookupProfile(code, imageDir string) Profile {
	base, _, _ := strings.Cut(code, "-")
	p := Profile{
		BaseType: base,
		Nickname: fallbackNickname,
		Color:    fallbackColor,
		Image:    path.Join(imageDir, strings.ToLower(base)+".png"),
	}
	if entry, ok := profiles[base]; ok {
		p.Nickname = entry.nickname
		p.Role = entry.role
		p.Color = roleColors[entry.role]
	}
	return p
}
