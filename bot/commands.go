package bot

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

func amountOption(description string) *discordgo.ApplicationCommandOption {
	minAmount := float64(1)
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionInteger,
		Name:        "금액",
		Description: description,
		Required:    true,
		MinValue:    &minAmount,
	}
}

func userOption(name, description string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionUser,
		Name:        name,
		Description: description,
		Required:    required,
	}
}

func channelBindingSubcommand(name, description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionSubCommand,
		Name:        name,
		Description: description,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionChannel,
				Name:        "채널",
				Description: "지정할 채널",
				Required:    true,
			},
		},
	}
}

func roleBindingSubcommand(name, description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionSubCommand,
		Name:        name,
		Description: description,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionRole,
				Name:        "역할",
				Description: "지정할 역할",
				Required:    true,
			},
		},
	}
}

func filterToggleSubcommand(name, description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionSubCommand,
		Name:        name,
		Description: description,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionBoolean,
				Name:        "활성화",
				Description: "켜기(true) 또는 끄기(false)",
				Required:    true,
			},
		},
	}
}

// commandDefinitions is every slash command the bot registers.
func commandDefinitions() []*discordgo.ApplicationCommand {
	minDiceSides := float64(2)
	minPurge := float64(1)
	maxPurge := float64(100)
	maxBanDays := float64(7)

	return []*discordgo.ApplicationCommand{
		// bank
		{Name: "통장개설", Description: "통장을 개설합니다"},
		{Name: "잔액", Description: "통장 잔액을 조회합니다"},
		{
			Name:        "입금",
			Description: "통장에 입금합니다",
			Options:     []*discordgo.ApplicationCommandOption{amountOption("입금할 금액")},
		},
		{
			Name:        "출금",
			Description: "통장에서 출금합니다",
			Options:     []*discordgo.ApplicationCommandOption{amountOption("출금할 금액")},
		},
		{
			Name:        "송금",
			Description: "다른 멤버에게 송금합니다",
			Options: []*discordgo.ApplicationCommandOption{
				userOption("대상", "송금받을 멤버", true),
				amountOption("송금할 금액"),
			},
		},
		{
			Name:        "대출",
			Description: "대출을 받습니다",
			Options:     []*discordgo.ApplicationCommandOption{amountOption("대출받을 금액")},
		},
		{
			Name:        "상환",
			Description: "대출을 상환합니다",
			Options:     []*discordgo.ApplicationCommandOption{amountOption("상환할 금액")},
		},
		{Name: "거래내역", Description: "최근 거래 내역을 조회합니다"},

		// vehicle
		{
			Name:        "차량등록",
			Description: "차량 등록을 신청합니다 (등록세가 차감됩니다)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "차량이름",
					Description: "등록할 차량 이름",
					Required:    true,
				},
			},
		},

		// moderation
		{
			Name:        "킥",
			Description: "멤버를 추방합니다",
			Options: []*discordgo.ApplicationCommandOption{
				userOption("대상", "추방할 멤버", true),
				{Type: discordgo.ApplicationCommandOptionString, Name: "사유", Description: "추방 사유"},
			},
		},
		{
			Name:        "밴",
			Description: "멤버를 차단합니다",
			Options: []*discordgo.ApplicationCommandOption{
				userOption("대상", "차단할 멤버", true),
				{Type: discordgo.ApplicationCommandOptionString, Name: "사유", Description: "차단 사유"},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "메시지삭제일",
					Description: "삭제할 메시지 기간(일)",
					MinValue:    new(float64),
					MaxValue:    maxBanDays,
				},
			},
		},
		{
			Name:        "청소",
			Description: "채널의 최근 메시지를 삭제합니다",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "개수",
					Description: "삭제할 메시지 개수 (1-100)",
					Required:    true,
					MinValue:    &minPurge,
					MaxValue:    maxPurge,
				},
			},
		},
		{
			Name:        "역할부여",
			Description: "멤버에게 역할을 부여합니다",
			Options: []*discordgo.ApplicationCommandOption{
				userOption("대상", "역할을 받을 멤버", true),
				{Type: discordgo.ApplicationCommandOptionRole, Name: "역할", Description: "부여할 역할", Required: true},
			},
		},
		{
			Name:        "역할삭제",
			Description: "멤버의 역할을 삭제합니다",
			Options: []*discordgo.ApplicationCommandOption{
				userOption("대상", "역할을 잃을 멤버", true),
				{Type: discordgo.ApplicationCommandOptionRole, Name: "역할", Description: "삭제할 역할", Required: true},
			},
		},
		{
			Name:        "경고",
			Description: "멤버에게 경고를 부여합니다",
			Options: []*discordgo.ApplicationCommandOption{
				userOption("대상", "경고할 멤버", true),
				{Type: discordgo.ApplicationCommandOptionString, Name: "사유", Description: "경고 사유", Required: true},
			},
		},
		{
			Name:        "경고조회",
			Description: "멤버의 경고 내역을 조회합니다",
			Options:     []*discordgo.ApplicationCommandOption{userOption("대상", "조회할 멤버", true)},
		},
		{
			Name:        "경고삭제",
			Description: "멤버의 경고를 삭제합니다",
			Options: []*discordgo.ApplicationCommandOption{
				userOption("대상", "경고를 삭제할 멤버", true),
				{Type: discordgo.ApplicationCommandOptionString, Name: "번호", Description: "삭제할 경고 번호 또는 '모두'", Required: true},
			},
		},
		{
			Name:        "블랙리스트",
			Description: "멤버를 블랙리스트에 등록합니다",
			Options: []*discordgo.ApplicationCommandOption{
				userOption("대상", "등록할 멤버", true),
				{Type: discordgo.ApplicationCommandOptionString, Name: "사유", Description: "등록 사유"},
			},
		},
		{
			Name:        "블랙리스트해제",
			Description: "멤버를 블랙리스트에서 해제합니다",
			Options:     []*discordgo.ApplicationCommandOption{userOption("대상", "해제할 멤버", true)},
		},
		{
			Name:        "스캔블랙리스트",
			Description: "멤버가 블랙리스트에 있는지 확인합니다",
			Options:     []*discordgo.ApplicationCommandOption{userOption("대상", "확인할 멤버", true)},
		},
		{Name: "보안리포트", Description: "서버 보안 현황을 요약합니다"},

		// tickets
		{
			Name:        "티켓",
			Description: "문의 티켓",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "오픈",
					Description: "문의 티켓을 엽니다",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionString, Name: "사유", Description: "문의 내용"},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "닫기",
					Description: "현재 티켓을 닫습니다",
				},
			},
		},

		// games
		{
			Name:        "주사위",
			Description: "주사위를 굴립니다",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "면수",
					Description: "주사위 면 수 (기본 6)",
					MinValue:    &minDiceSides,
				},
			},
		},
		{
			Name:        "가위바위보",
			Description: "봇과 가위바위보를 합니다",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "선택",
					Description: "가위, 바위, 보 중 선택",
					Required:    true,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "가위", Value: "가위"},
						{Name: "바위", Value: "바위"},
						{Name: "보", Value: "보"},
					},
				},
			},
		},

		// audio
		{Name: "들어와", Description: "음성 채널에 들어옵니다"},
		{Name: "나가", Description: "음성 채널에서 나갑니다"},
		{
			Name:        "재생",
			Description: "음원을 재생합니다",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "검색어", Description: "URL 또는 검색어", Required: true},
			},
		},
		{Name: "정지", Description: "재생을 정지합니다"},

		// admin
		{
			Name:        "설정",
			Description: "서버 설정을 변경합니다",
			Options: []*discordgo.ApplicationCommandOption{
				channelBindingSubcommand("차량등록채널", "차량 등록 신청을 받을 채널"),
				channelBindingSubcommand("차량관리채널", "차량 심사 요청이 올라올 채널"),
				channelBindingSubcommand("차량승인채널", "등록증이 게시될 채널"),
				channelBindingSubcommand("은행채널", "은행 명령어 전용 채널"),
				channelBindingSubcommand("티켓개설채널", "티켓을 열 수 있는 채널"),
				channelBindingSubcommand("티켓카테고리", "티켓 채널이 생성될 카테고리"),
				channelBindingSubcommand("로그채널", "봇 로그가 게시될 채널"),
				roleBindingSubcommand("차량관리역할", "차량 심사를 담당할 역할"),
				roleBindingSubcommand("티켓관리역할", "티켓을 담당할 역할"),
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "등록세",
					Description: "차량 등록세를 변경합니다",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "금액",
							Description: "새 등록세",
							Required:    true,
							MinValue:    new(float64),
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommandGroup,
					Name:        "금지차량",
					Description: "금지 차량 목록을 관리합니다",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionSubCommand,
							Name:        "추가",
							Description: "금지 차량을 추가합니다",
							Options: []*discordgo.ApplicationCommandOption{
								{Type: discordgo.ApplicationCommandOptionString, Name: "이름", Description: "차량 이름", Required: true},
							},
						},
						{
							Type:        discordgo.ApplicationCommandOptionSubCommand,
							Name:        "삭제",
							Description: "금지 차량을 삭제합니다",
							Options: []*discordgo.ApplicationCommandOption{
								{Type: discordgo.ApplicationCommandOptionString, Name: "이름", Description: "차량 이름", Required: true},
							},
						},
						{
							Type:        discordgo.ApplicationCommandOptionSubCommand,
							Name:        "목록",
							Description: "금지 차량 목록을 봅니다",
						},
					},
				},
				filterToggleSubcommand("스팸필터", "스팸 필터를 켜거나 끕니다"),
				filterToggleSubcommand("초대필터", "초대링크 필터를 켜거나 끕니다"),
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "모든설정확인",
					Description: "현재 서버 설정을 모두 봅니다",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "봇상태설정",
					Description: "봇의 표시 상태를 변경합니다 (봇 소유자 전용)",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "상태",
							Description: "온라인 상태",
							Choices: []*discordgo.ApplicationCommandOptionChoice{
								{Name: "온라인", Value: "online"},
								{Name: "자리비움", Value: "idle"},
								{Name: "방해금지", Value: "dnd"},
							},
						},
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "활동유형",
							Description: "활동 유형",
							Choices: []*discordgo.ApplicationCommandOptionChoice{
								{Name: "하는 중", Value: "playing"},
								{Name: "듣는 중", Value: "listening"},
								{Name: "보는 중", Value: "watching"},
							},
						},
						{Type: discordgo.ApplicationCommandOptionString, Name: "활동내용", Description: "활동 텍스트"},
					},
				},
			},
		},
		{
			Name:        "명령어",
			Description: "명령어를 켜거나 끕니다",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "켜기",
					Description: "명령어를 활성화합니다",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionString, Name: "이름", Description: "명령어 이름", Required: true},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "끄기",
					Description: "명령어를 비활성화합니다",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionString, Name: "이름", Description: "명령어 이름", Required: true},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "목록",
					Description: "명령어 상태를 봅니다",
				},
			},
		},
		{Name: "봇상태", Description: "봇 상태를 확인합니다"},
		{
			Name:        "채널명변경",
			Description: "AI가 추천한 이름으로 채널명을 변경합니다",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "주제", Description: "채널 주제", Required: true},
			},
		},
	}
}

// registerCommands bulk-overwrites the bot's global application commands.
func (b *Bot) registerCommands() error {
	commands := commandDefinitions()
	registered, err := b.session.ApplicationCommandBulkOverwrite(b.session.State.User.ID, "", commands)
	if err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}
	log.WithField("count", len(registered)).Info("Registered application commands")
	return nil
}
