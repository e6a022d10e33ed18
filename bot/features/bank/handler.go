package bank

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"justbot/bot/common"
	"justbot/models"
	"justbot/service"
)

var entryTypeLabels = map[models.EntryType]string{
	models.EntryTypeDeposit:     "입금",
	models.EntryTypeWithdrawal:  "출금",
	models.EntryTypeTransferIn:  "송금 받음",
	models.EntryTypeTransferOut: "송금 보냄",
	models.EntryTypeLoanTaken:   "대출",
	models.EntryTypeLoanRepaid:  "상환",
	models.EntryTypeVehicleFee:  "차량 등록세",
}

func optionMap(i *discordgo.InteractionCreate) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	options := i.ApplicationCommandData().Options
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		m[opt.Name] = opt
	}
	return m
}

func (f *Feature) handleOpenAccount(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	userID, err := common.ParseUserID(i.Member.User.ID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to parse user ID"), false)
		return
	}

	account, err := f.accountService.OpenAccount(ctx, userID, i.Member.User.Username)
	if err != nil {
		if errors.Is(err, service.ErrAccountExists) {
			common.RespondWithError(s, i, "이미 통장을 가지고 계십니다.")
			return
		}
		common.HandleError(s, i, common.NewSystemError(err, "failed to open account"), false)
		return
	}

	embed := &discordgo.MessageEmbed{
		Title:       "🏦 통장 개설 완료",
		Description: fmt.Sprintf("%s님의 통장이 개설되었습니다.", common.GetDisplayName(s, i.GuildID, i.Member.User.ID)),
		Color:       common.ColorSuccess,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "잔액", Value: common.FormatBalance(account.Balance), Inline: true},
		},
	}
	if err := common.RespondWithEmbed(s, i, embed, nil, false); err != nil {
		log.WithError(err).Error("Failed to respond to account open")
	}
}

func (f *Feature) handleBalance(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	userID, err := common.ParseUserID(i.Member.User.ID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to parse user ID"), false)
		return
	}

	account, err := f.accountService.GetAccount(ctx, userID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to get account"), false)
		return
	}
	if account == nil {
		common.RespondWithError(s, i, "통장이 없습니다. `/통장개설`로 먼저 통장을 만들어주세요.")
		return
	}

	embed := &discordgo.MessageEmbed{
		Title: "💰 잔액 조회",
		Color: common.ColorPrimary,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "예금주", Value: common.GetDisplayName(s, i.GuildID, i.Member.User.ID), Inline: true},
			{Name: "잔액", Value: common.FormatBalance(account.Balance), Inline: true},
		},
	}

	loan, err := f.loanService.GetActiveLoan(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("Failed to look up active loan for balance display")
	} else if loan != nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "남은 대출금",
			Value:  common.FormatBalance(loan.Remaining()),
			Inline: true,
		})
	}

	if err := common.RespondWithEmbed(s, i, embed, nil, true); err != nil {
		log.WithError(err).Error("Failed to respond to balance check")
	}
}

func (f *Feature) handleDeposit(s *discordgo.Session, i *discordgo.InteractionCreate) {
	f.handleBalanceChange(s, i, "입금", "📥 입금 완료", func(ctx context.Context, guildID, userID, amount int64) (*models.Account, error) {
		return f.accountService.Deposit(ctx, guildID, userID, amount)
	})
}

func (f *Feature) handleWithdraw(s *discordgo.Session, i *discordgo.InteractionCreate) {
	f.handleBalanceChange(s, i, "출금", "📤 출금 완료", func(ctx context.Context, guildID, userID, amount int64) (*models.Account, error) {
		return f.accountService.Withdraw(ctx, guildID, userID, amount)
	})
}

func (f *Feature) handleBalanceChange(s *discordgo.Session, i *discordgo.InteractionCreate, verb, title string, op func(ctx context.Context, guildID, userID, amount int64) (*models.Account, error)) {
	ctx := context.Background()

	userID, err := common.ParseUserID(i.Member.User.ID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to parse user ID"), false)
		return
	}
	guildID, err := common.ParseUserID(i.GuildID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to parse guild ID"), false)
		return
	}

	opts := optionMap(i)
	amountOpt, ok := opts["금액"]
	if !ok {
		common.RespondWithError(s, i, "금액을 입력해주세요.")
		return
	}
	amount := amountOpt.IntValue()

	account, err := op(ctx, guildID, userID, amount)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidAmount):
			common.RespondWithError(s, i, "금액은 1원 이상이어야 합니다.")
		case errors.Is(err, service.ErrNoAccount):
			common.RespondWithError(s, i, "통장이 없습니다. `/통장개설`로 먼저 통장을 만들어주세요.")
		case errors.Is(err, service.ErrInsufficientBalance):
			common.RespondWithError(s, i, "잔액이 부족합니다.")
		default:
			common.HandleError(s, i, common.NewSystemError(err, "failed to apply "+verb), false)
		}
		return
	}

	embed := &discordgo.MessageEmbed{
		Title: title,
		Color: common.ColorSuccess,
		Fields: []*discordgo.MessageEmbedField{
			{Name: verb + " 금액", Value: common.FormatBalance(amount), Inline: true},
			{Name: "잔액", Value: common.FormatBalance(account.Balance), Inline: true},
		},
	}
	if err := common.RespondWithEmbed(s, i, embed, nil, false); err != nil {
		log.WithError(err).Error("Failed to respond to " + verb)
	}
}

func (f *Feature) handleTransfer(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	fromID, err := common.ParseUserID(i.Member.User.ID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to parse user ID"), false)
		return
	}
	guildID, err := common.ParseUserID(i.GuildID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to parse guild ID"), false)
		return
	}

	opts := optionMap(i)
	targetOpt, hasTarget := opts["대상"]
	amountOpt, hasAmount := opts["금액"]
	if !hasTarget || !hasAmount {
		common.RespondWithError(s, i, "송금 대상과 금액을 입력해주세요.")
		return
	}

	target := targetOpt.UserValue(s)
	if target == nil {
		common.RespondWithError(s, i, "송금 대상을 찾을 수 없습니다.")
		return
	}
	if target.Bot {
		common.RespondWithError(s, i, "봇에게는 송금할 수 없습니다.")
		return
	}

	toID, err := common.ParseUserID(target.ID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to parse target user ID"), false)
		return
	}
	if toID == fromID {
		common.RespondWithError(s, i, "자기 자신에게는 송금할 수 없습니다.")
		return
	}
	amount := amountOpt.IntValue()

	if err := f.accountService.Transfer(ctx, guildID, fromID, toID, amount, target.Username); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidAmount):
			common.RespondWithError(s, i, "금액은 1원 이상이어야 합니다.")
		case errors.Is(err, service.ErrNoAccount):
			common.RespondWithError(s, i, "통장이 없습니다. `/통장개설`로 먼저 통장을 만들어주세요.")
		case errors.Is(err, service.ErrInsufficientBalance):
			common.RespondWithError(s, i, "잔액이 부족합니다.")
		default:
			common.HandleError(s, i, common.NewSystemError(err, "failed to transfer"), false)
		}
		return
	}

	embed := &discordgo.MessageEmbed{
		Title:       "💸 송금 완료",
		Description: fmt.Sprintf("%s님에게 %s을(를) 송금했습니다.", common.GetDisplayName(s, i.GuildID, target.ID), common.FormatBalance(amount)),
		Color:       common.ColorSuccess,
	}
	if err := common.RespondWithEmbed(s, i, embed, nil, false); err != nil {
		log.WithError(err).Error("Failed to respond to transfer")
	}
}

func (f *Feature) handleTakeLoan(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	userID, err := common.ParseUserID(i.Member.User.ID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to parse user ID"), false)
		return
	}
	guildID, err := common.ParseUserID(i.GuildID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to parse guild ID"), false)
		return
	}

	opts := optionMap(i)
	amountOpt, ok := opts["금액"]
	if !ok {
		common.RespondWithError(s, i, "대출 금액을 입력해주세요.")
		return
	}
	amount := amountOpt.IntValue()

	loan, err := f.loanService.TakeLoan(ctx, guildID, userID, amount)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidAmount):
			common.RespondWithError(s, i, "금액은 1원 이상이어야 합니다.")
		case errors.Is(err, service.ErrLoansDisabled):
			common.RespondWithError(s, i, "이 서버에서는 대출이 비활성화되어 있습니다.")
		case errors.Is(err, service.ErrLoanTooLarge):
			config, cfgErr := f.configService.GetConfig(ctx, guildID)
			if cfgErr != nil {
				common.RespondWithError(s, i, "대출 한도를 초과했습니다.")
				return
			}
			common.RespondWithError(s, i, fmt.Sprintf("대출 한도를 초과했습니다. 최대 %s까지 대출할 수 있습니다.", common.FormatBalance(config.MaxLoanAmount)))
		case errors.Is(err, service.ErrActiveLoan):
			common.RespondWithError(s, i, "이미 상환 중인 대출이 있습니다. 먼저 `/상환`으로 갚아주세요.")
		case errors.Is(err, service.ErrNoAccount):
			common.RespondWithError(s, i, "통장이 없습니다. `/통장개설`로 먼저 통장을 만들어주세요.")
		default:
			common.HandleError(s, i, common.NewSystemError(err, "failed to take loan"), false)
		}
		return
	}

	embed := &discordgo.MessageEmbed{
		Title: "🏦 대출 실행",
		Color: common.ColorWarning,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "대출 원금", Value: common.FormatBalance(loan.Principal), Inline: true},
			{Name: "이자율", Value: fmt.Sprintf("%.1f%%", loan.Rate*100), Inline: true},
			{Name: "총 상환액", Value: common.FormatBalance(loan.TotalOwed), Inline: true},
			{Name: "상환 기한", Value: common.FormatDiscordTimestamp(loan.DueAt, "D"), Inline: true},
		},
	}
	if err := common.RespondWithEmbed(s, i, embed, nil, false); err != nil {
		log.WithError(err).Error("Failed to respond to loan")
	}
}

func (f *Feature) handleRepayLoan(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	userID, err := common.ParseUserID(i.Member.User.ID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to parse user ID"), false)
		return
	}
	guildID, err := common.ParseUserID(i.GuildID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to parse guild ID"), false)
		return
	}

	opts := optionMap(i)
	amountOpt, ok := opts["금액"]
	if !ok {
		common.RespondWithError(s, i, "상환 금액을 입력해주세요.")
		return
	}
	amount := amountOpt.IntValue()

	loan, err := f.loanService.RepayLoan(ctx, guildID, userID, amount)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidAmount):
			common.RespondWithError(s, i, "금액은 1원 이상이어야 합니다.")
		case errors.Is(err, service.ErrNoActiveLoan):
			common.RespondWithError(s, i, "상환할 대출이 없습니다.")
		case errors.Is(err, service.ErrOverpayment):
			common.RespondWithError(s, i, "남은 상환액보다 많이 갚을 수 없습니다.")
		case errors.Is(err, service.ErrInsufficientBalance):
			common.RespondWithError(s, i, "잔액이 부족합니다.")
		case errors.Is(err, service.ErrNoAccount):
			common.RespondWithError(s, i, "통장이 없습니다. `/통장개설`로 먼저 통장을 만들어주세요.")
		default:
			common.HandleError(s, i, common.NewSystemError(err, "failed to repay loan"), false)
		}
		return
	}

	embed := &discordgo.MessageEmbed{
		Title: "💳 상환 완료",
		Color: common.ColorSuccess,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "상환 금액", Value: common.FormatBalance(amount), Inline: true},
		},
	}
	if loan.Status == models.LoanStatusPaid {
		embed.Description = "🎉 대출을 전액 상환했습니다!"
	} else {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "남은 상환액",
			Value:  common.FormatBalance(loan.Remaining()),
			Inline: true,
		})
	}
	if err := common.RespondWithEmbed(s, i, embed, nil, false); err != nil {
		log.WithError(err).Error("Failed to respond to repayment")
	}
}

func (f *Feature) handleHistory(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	userID, err := common.ParseUserID(i.Member.User.ID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to parse user ID"), false)
		return
	}

	entries, err := f.accountService.GetHistory(ctx, userID, 10)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to get history"), false)
		return
	}
	if len(entries) == 0 {
		common.RespondWithError(s, i, "거래 내역이 없습니다.")
		return
	}

	var sb strings.Builder
	for _, entry := range entries {
		label, ok := entryTypeLabels[entry.EntryType]
		if !ok {
			label = string(entry.EntryType)
		}
		sign := "+"
		if entry.ChangeAmount < 0 {
			sign = ""
		}
		sb.WriteString(fmt.Sprintf("%s **%s** %s%s → 잔액 %s\n",
			common.FormatDiscordTimestamp(entry.CreatedAt, "d"),
			label,
			sign,
			common.FormatBalance(entry.ChangeAmount),
			common.FormatBalance(entry.BalanceAfter)))
	}

	embed := &discordgo.MessageEmbed{
		Title:       "📜 거래 내역",
		Description: sb.String(),
		Color:       common.ColorPrimary,
		Footer:      &discordgo.MessageEmbedFooter{Text: "최근 10건"},
	}
	if err := common.RespondWithEmbed(s, i, embed, nil, true); err != nil {
		log.WithError(err).Error("Failed to respond to history")
	}
}
