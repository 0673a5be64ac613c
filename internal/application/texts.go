package application

// Button labels. These double as routing keys for reply-keyboard presses,
// so they must match the keyboards exactly.
const (
	btnBuyTariff   = "🏷 Tarif sotib olish"
	btnMyTariff    = "👤 Mening tarifim"
	btnAskQuestion = "🩺 Savol berish"
	btnReferral    = "🎁 Referal havola"
	btnSocials     = "📢 Ijtimoiy tarmoqlar bonusi"
	btnRedeem      = "💳 Bonusni klinikada ishlatish"
	btnBroadcast   = "📣 Xabar yuborish"
	btnReport      = "📊 Hisobot"

	btnTariffPro       = "Pro"
	btnTariffPremium   = "Premium"
	btnTariffPregnancy = "Homiladorlik"
	btnTariffPlanning  = "Farzand ko‘rishni rejalashtirish"

	btnUseBonus  = "Bonus mablag’dan foydalanish"
	btnPayDirect = "Sotib olish"
	btnPayLink   = "🌐 To‘lov havolasi"
	btnInvoice   = "🧾 Invoys orqali to‘lash"
	btnPaid      = "To'lov qildim"
	btnYes       = "Ha"
	btnNo        = "Yo'q"
	btnBack      = "Orqaga"
	btnCancel    = "Bekor qilish"

	btnApprove = "Tasdiqlash"
	btnDecline = "To'lovni rad qilish"
)

const (
	msgWelcomeBack = "Bosh menyu:"
	msgAskFullName = "Ro‘yxatdan o‘tish uchun to‘liq ism-familiyangizni yuboring."
	msgAskBirth    = "Tug‘ilgan yilingizni yuboring (masalan: 1995)."
	msgAskPhone    = "Telefon raqamingizni yuboring (masalan: +998901234567)."
	msgAskAddress  = "Yashash manzilingizni yuboring."
	msgRegistered  = "✅ Ro‘yxatdan o‘tdingiz! Bosh menyudan bo‘limni tanlang."
	msgBadBirth    = "❌ Iltimos, tug‘ilgan yilni to‘g‘ri yuboring (masalan: 1995)."

	msgTariffOverview = "Tariflar haqida ma'lumot:\n\n" +
		"📌 Pro: 1 hafta – 19 000 so‘m, 1 oy – 59 000 so‘m\n" +
		"📌 Premium: 1 hafta – 29 000 so‘m, 1 oy – 99 000 so‘m\n" +
		"📌 Homiladorlik: 1 oy – 79 000 so‘m, 9 oy – 349 000 so‘m\n" +
		"📌 Farzand ko‘rishni rejalashtirish: 1 hafta – 59 000 so‘m, 1 oy – 199 000 so‘m\n\n" +
		"Qaysi tarifni sotib olmoqchisiz?"
	msgChoosePlan          = "Qaysi reja kerak?"
	msgChoosePlanPregnancy = "Homiladorlik uchun reja tanlang:"
	msgBadTariff           = "❌ Iltimos, mavjud tariflar orasidan tanlang yoki 'Orqaga' tugmasi bilan qayting."
	msgUseButtons          = "Iltimos, tugmalardan birini bosing."
	msgPlanNotFound        = "❌ Xatolik: reja topilmadi."

	msgNoBonus        = "⚠ Sizda bonus mablag‘ mavjud emas."
	msgConfirmChoice  = "Iltimos, 'Bonus mablag’dan foydalanish' yoki 'Sotib olish' tugmasini bosing."
	msgConfirmYesNo   = "Iltimos, 'Ha' yoki 'Yo'q' tugmasini bosing."
	msgBonusActivated = "🎉 Bonus ishlatildi va tarif faollashtirildi!"
	msgCancelled      = "❌ To'lov bekor qilindi."
	msgBackToMenu     = "Bosh menyuga qaytildi."

	msgSendReceipt   = "✅ To‘lovni amalga oshirgach, chek yoki screenshotni yuboring."
	msgSendReceipt2  = "Iltimos, chek yoki to‘lov screenshotini shu chatga yuboring."
	msgAskLast4      = "✅ Endi kartangizning oxirgi 4 ta raqamini yuboring."
	msgBadLast4      = "Iltimos, kartaning oxirgi 4 ta raqamini faqat raqam sifatida yuboring (masalan: 1234)."
	msgSentToAdmin   = "✅ To‘lovingiz adminga yuborildi. 10-15 daqiqa ichida javob beriladi."
	msgClaimQueued   = "⏳ To‘lovingiz tekshirilmoqda. Tasdiqlangach sizga xabar beramiz."
	msgClaimNotPaid  = "❌ To‘lov hali tasdiqlanmadi. Iltimos, avval to‘lovni yakunlang."
	msgPaymentDone   = "🎉 To‘lov tasdiqlandi va tarif faollashtirildi!"
	msgPaymentFailed = "❌ To‘lovingiz rad etildi. Sabab uchun adminga murojaat qiling."

	msgApproved        = "✅ To‘lov tasdiqlandi va tarif faollashtirildi."
	msgDeclined        = "❌ To‘lov rad etildi."
	msgAlreadyDecided  = "⚠ Bu to‘lov bo‘yicha qaror allaqachon qabul qilingan."
	msgNoPermission    = "⛔ Sizda ruxsat yo'q"
	msgPaymentNotFound = "Xatolik: to'lov topilmadi."

	msgNotRegistered  = "Avval ro‘yxatdan o‘ting: /start"
	msgQuotaExhausted = "⚠ Bugungi savollar limiti tugadi. Ertaga qayta urinib ko‘ring yoki tarifni yangilang."
	msgAskYourText    = "Savolingizni yozib yuboring, shifokor tez orada javob beradi."
	msgQuestionSent   = "✅ Savolingiz shifokorga yuborildi."

	msgSocialsJoin = "Bonus olish uchun kanal va guruhimizga a'zo bo‘ling, so‘ng qayta urinib ko‘ring."
	msgSocialsDone = "🎉 Obuna uchun bonus hisobingizga qo‘shildi!"
	msgSocialsDup  = "⚠ Siz bu bonusni allaqachon olgansiz."

	msgRedeemEmpty = "⚠ Bonus balansingiz bo‘sh."

	msgBroadcastAsk  = "Yuboriladigan xabar matnini kiriting."
	msgUserBusy      = "⏳ Iltimos, biroz kuting va qayta urinib ko‘ring."
	msgGenericError  = "Xatolik yuz berdi."
	msgNoOpenPayment = "Faol to‘lov topilmadi. Tarif tanlashdan boshlang."
)
